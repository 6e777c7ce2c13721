// Package territory resolves which pincodes a user may see.
//
// The policy is fail-closed: a non-admin without mappings, or any lookup
// failure, yields a restricted scope with no pincodes, which downstream
// queries treat as "no rows".
package territory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hoareca_growth_hub/platform/config"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"

	"github.com/google/uuid"
)

// RoleAdmin bypasses territory filtering.
const RoleAdmin = "admin"

// ErrUserNotFound is returned when the user has no row in users.
var ErrUserNotFound = errors.New("user not found")

// User is the registered account behind a token subject.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Role     string    `json:"role"`
}

// Mapping binds an email to a pincode under a persona role.
type Mapping struct {
	ID        uuid.UUID `json:"id"`
	Pincode   string    `json:"pincode"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Scope is the set of pincodes a user may see.
type Scope struct {
	Unrestricted bool     `json:"unrestricted"`
	Pincodes     []string `json:"pincodes"`
}

// Denied is the fail-closed scope.
func Denied() Scope {
	return Scope{Pincodes: []string{}}
}

// Unrestricted is the admin scope.
func Unrestricted() Scope {
	return Scope{Unrestricted: true, Pincodes: []string{}}
}

// Restricted builds a scope from pincodes, deduplicated and sorted.
func Restricted(pincodes ...string) Scope {
	seen := make(map[string]struct{}, len(pincodes))
	out := make([]string, 0, len(pincodes))
	for _, p := range pincodes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return Scope{Pincodes: out}
}

// Allows reports whether records in pincode are visible.
func (s Scope) Allows(pincode string) bool {
	if s.Unrestricted {
		return true
	}
	pincode = strings.TrimSpace(pincode)
	for _, p := range s.Pincodes {
		if p == pincode {
			return true
		}
	}
	return false
}

// Filter returns the pincode list for an "in set" query. Nil means no
// filter; a non-nil empty slice matches nothing.
func (s Scope) Filter() []string {
	if s.Unrestricted {
		return nil
	}
	if s.Pincodes == nil {
		return []string{}
	}
	return s.Pincodes
}

// Narrow intersects the scope with a requested pincode and returns the
// resulting filter. An empty pincode keeps the whole scope; a pincode outside
// the scope matches nothing.
func (s Scope) Narrow(pincode string) []string {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return s.Filter()
	}
	if !s.Allows(pincode) {
		return []string{}
	}
	return []string{pincode}
}

// SeesNothing reports whether reads can be short-circuited to zero rows.
func (s Scope) SeesNothing() bool {
	return !s.Unrestricted && len(s.Pincodes) == 0
}

// Store reads users and pincode mappings.
type Store interface {
	UserByID(ctx context.Context, id uuid.UUID) (User, error)
	MappingsByEmail(ctx context.Context, email string) ([]Mapping, error)
}

// ScopeCache stores resolved scopes for a short time.
type ScopeCache interface {
	Get(ctx context.Context, userID uuid.UUID) (Scope, bool, error)
	Set(ctx context.Context, userID uuid.UUID, scope Scope, ttl time.Duration) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Resolver maps users to scopes.
type Resolver struct {
	store   Store
	cache   ScopeCache
	ttl     time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(store Store, cache ScopeCache, cfg config.TerritoryConfig, log *logger.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{store: store, cache: cache, ttl: cfg.GetScopeCacheTTL(), log: log, metrics: m}
}

// Resolve returns the user's scope. It never returns an open scope on error.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) Scope {
	if userID == uuid.Nil {
		r.log.ScopeDenied("", "anonymous")
		return Denied()
	}

	if r.cache != nil && r.ttl > 0 {
		scope, ok, err := r.cache.Get(ctx, userID)
		switch {
		case err != nil:
			r.log.WithContext(ctx).Warn("territory cache read failed", "error", err)
		case ok:
			r.metrics.RecordCache("territory", true)
			return scope
		default:
			r.metrics.RecordCache("territory", false)
		}
	}

	scope, err := r.lookup(ctx, userID)
	if err != nil {
		r.log.ScopeDenied(userID.String(), err.Error())
		return Denied()
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.Set(ctx, userID, scope, r.ttl); err != nil {
			r.log.WithContext(ctx).Warn("territory cache write failed", "error", err)
		}
	}
	return scope
}

// Invalidate drops a cached scope after mappings change.
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(ctx, userID)
}

func (r *Resolver) lookup(ctx context.Context, userID uuid.UUID) (Scope, error) {
	user, err := r.store.UserByID(ctx, userID)
	if err != nil {
		return Scope{}, err
	}
	if strings.EqualFold(user.Role, RoleAdmin) {
		return Unrestricted(), nil
	}

	mappings, err := r.store.MappingsByEmail(ctx, user.Email)
	if err != nil {
		return Scope{}, err
	}

	pincodes := make([]string, 0, len(mappings))
	for _, m := range mappings {
		if strings.EqualFold(m.Role, RoleAdmin) {
			return Unrestricted(), nil
		}
		pincodes = append(pincodes, m.Pincode)
	}
	return Restricted(pincodes...), nil
}

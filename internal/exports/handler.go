package exports

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hoareca_growth_hub/internal/csvio"
	"hoareca_growth_hub/internal/funnel"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/platform/httpkit"
	"hoareca_growth_hub/platform/validator"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LeadLister lists leads within the caller's territory.
type LeadLister interface {
	ListLeads(ctx context.Context, actor service.Actor, f service.ListFilter) ([]domain.Lead, error)
}

type exportQuery struct {
	From    string `form:"from"`
	To      string `form:"to"`
	Pincode string `form:"pincode" validate:"omitempty,pincode"`
	Format  string `form:"format" validate:"omitempty,oneof=csv xlsx"`
}

// Handler streams lead exports.
type Handler struct {
	leads LeadLister
	val   *validator.Validator
	loc   *time.Location
}

func NewHandler(leads LeadLister, val *validator.Validator, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{leads: leads, val: val, loc: loc}
}

// ExportLeads serves GET /exports/leads as CSV or XLSX.
func (h *Handler) ExportLeads(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var q exportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	from, to, err := httpkit.ParseDateRange(q.From, q.To, h.loc)
	if httpkit.HandleError(c, err) {
		return
	}

	window := funnel.DayFilter(from, to, q.Pincode, h.loc)
	f := service.ListFilter{Pincode: q.Pincode}
	if !window.From.IsZero() {
		f.From = &window.From
	}
	if !window.To.IsZero() {
		f.To = &window.To
	}

	actor := service.Actor{ID: identity.UserID(), Email: identity.Email()}
	leads, err := h.leads.ListLeads(c.Request.Context(), actor, f)
	if httpkit.HandleError(c, err) {
		return
	}

	format := strings.ToLower(q.Format)
	if format == "" {
		format = csvio.FormatCSV
	}
	var buf bytes.Buffer
	if err := csvio.WriteLeads(&buf, format, leads, h.loc); err != nil {
		_ = c.Error(err)
		httpkit.Error(c, http.StatusInternalServerError, "export failed", nil)
		return
	}

	contentType := "text/csv"
	if format == csvio.FormatXLSX {
		contentType = xlsxContentType
	}
	filename := fmt.Sprintf("leads-%s.%s", time.Now().In(h.loc).Format("20060102"), format)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

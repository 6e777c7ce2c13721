package analytics

import (
	"context"
	"fmt"

	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"
)

const (
	MilestoneConverted = "converted"
	MilestoneSigned    = "signed"
)

// RegisterMilestoneHandlers writes an audit line and counts each prospect
// conversion and signed agreement.
func RegisterMilestoneHandlers(bus events.Bus, m *metrics.Metrics, log *logger.Logger) {
	bus.Subscribe(events.ProspectConverted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ProspectConverted)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		log.WithContext(ctx).Info("pipeline milestone",
			"milestone", MilestoneConverted,
			"event_id", e.EventID(),
			"prospect_id", e.ProspectID,
			"lead_id", e.LeadID,
			"pincode", e.Pincode,
			"actor_id", e.ActorID,
		)
		m.RecordMilestone(MilestoneConverted, e.Pincode)
		return nil
	}))

	bus.Subscribe(events.AgreementSigned{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.AgreementSigned)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		log.WithContext(ctx).Info("pipeline milestone",
			"milestone", MilestoneSigned,
			"event_id", e.EventID(),
			"agreement_id", e.AgreementID,
			"lead_id", e.LeadID,
			"pincode", e.Pincode,
			"actor_id", e.ActorID,
		)
		m.RecordMilestone(MilestoneSigned, e.Pincode)
		return nil
	}))
}

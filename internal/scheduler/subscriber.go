package scheduler

import (
	"context"
	"fmt"

	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/platform/logger"
)

// RegisterReminderHandlers turns RevisitScheduled events into queued
// reminders.
func RegisterReminderHandlers(bus events.Bus, reminders ReminderScheduler, log *logger.Logger) {
	bus.Subscribe(events.RevisitScheduled{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.RevisitScheduled)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		if e.Assignee == "" {
			log.WithContext(ctx).Info("revisit reminder skipped: no assignee", "entity", e.Entity, "entity_id", e.EntityID)
			return nil
		}

		err := reminders.ScheduleRevisitReminder(ctx, RevisitReminderPayload{
			Entity:     e.Entity,
			EntityID:   e.EntityID.String(),
			LeadID:     e.LeadID.String(),
			ClientName: e.ClientName,
			Pincode:    e.Pincode,
			Assignee:   e.Assignee,
			RevisitAt:  e.RevisitAt,
		})
		if err != nil {
			log.WithContext(ctx).Error("failed to schedule revisit reminder", "entity", e.Entity, "entity_id", e.EntityID, "error", err)
			return err
		}
		return nil
	}))
}

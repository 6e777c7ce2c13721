package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskRevisitReminder = "pipeline.revisit.reminder"

type RevisitReminderPayload struct {
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entityId"`
	LeadID     string    `json:"leadId"`
	ClientName string    `json:"clientName"`
	Pincode    string    `json:"pincode"`
	Assignee   string    `json:"assignee"`
	RevisitAt  time.Time `json:"revisitAt"`
}

// taskID deduplicates reminders for the same record and time.
func (p RevisitReminderPayload) taskID() string {
	return "revisit:" + p.Entity + ":" + p.EntityID + ":" + p.RevisitAt.UTC().Format(time.RFC3339)
}

func NewRevisitReminderTask(payload RevisitReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRevisitReminder, data), nil
}

func ParseRevisitReminderPayload(task *asynq.Task) (RevisitReminderPayload, error) {
	var payload RevisitReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RevisitReminderPayload{}, err
	}
	return payload, nil
}

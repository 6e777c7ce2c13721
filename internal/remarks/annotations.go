package remarks

import (
	"strconv"
	"strings"
	"time"
)

// Annotations are the typed facts that used to live only inside remark tags.
// They are stored as JSON in each record's metadata column.
type Annotations struct {
	RevisitDate  string `json:"revisit_date,omitempty"`
	RevisitTime  string `json:"revisit_time,omitempty"`
	RevisitDone  bool   `json:"revisit_done,omitempty"`
	FollowUpDate string `json:"follow_up_date,omitempty"`
	FollowUpTime string `json:"follow_up_time,omitempty"`
	DropReason   string `json:"drop_reason,omitempty"`
	Dropped      bool   `json:"dropped,omitempty"`
	TotalVisits  *int   `json:"total_visits,omitempty"`
	Feedback     string `json:"feedback,omitempty"`
}

// IsZero reports whether no annotation is set.
func (a Annotations) IsZero() bool {
	return a.RevisitDate == "" && !a.RevisitDone && a.FollowUpDate == "" && a.DropReason == "" &&
		!a.Dropped && a.TotalVisits == nil && a.Feedback == ""
}

// WithRevisit records a revisit appointment.
func (a Annotations) WithRevisit(at time.Time) Annotations {
	a.RevisitDate = at.Format(dateLayout)
	a.RevisitTime = at.Format(timeLayout)
	a.RevisitDone = false
	return a
}

// WithRevisitDone clears a pending revisit once a visit is completed. Older
// revisit tags in the remarks no longer count.
func (a Annotations) WithRevisitDone() Annotations {
	a.RevisitDate = ""
	a.RevisitTime = ""
	a.RevisitDone = true
	return a
}

// WithFollowUp records a follow-up appointment.
func (a Annotations) WithFollowUp(at time.Time) Annotations {
	a.FollowUpDate = at.Format(dateLayout)
	a.FollowUpTime = at.Format(timeLayout)
	return a
}

// WithDrop records a drop and the visit total at that moment.
func (a Annotations) WithDrop(reason string, totalVisits int) Annotations {
	a.Dropped = true
	a.DropReason = strings.TrimSpace(reason)
	a.TotalVisits = &totalVisits
	return a
}

// WithReason records a reason without marking the record dropped.
func (a Annotations) WithReason(reason string) Annotations {
	a.DropReason = strings.TrimSpace(reason)
	return a
}

// RevisitAt parses the revisit date and time in loc. A missing time means
// start of day.
func (a Annotations) RevisitAt(loc *time.Location) (time.Time, bool) {
	return parseDateTime(a.RevisitDate, a.RevisitTime, loc)
}

// FollowUpAt parses the follow-up date and time in loc.
func (a Annotations) FollowUpAt(loc *time.Location) (time.Time, bool) {
	return parseDateTime(a.FollowUpDate, a.FollowUpTime, loc)
}

func parseDateTime(date, clock string, loc *time.Location) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if clock != "" {
		if t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc); err == nil {
			return t, true
		}
	}
	t, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Resolve returns the record's annotations. Fields present in metadata win;
// missing fields are filled from tags in remarks.
func Resolve(text string, metadata Annotations) Annotations {
	out := metadata

	if out.RevisitDate == "" && !out.RevisitDone {
		if v, ok := ExtractTag(text, TagRevisit); ok {
			out.RevisitDate = v
			out.RevisitTime, _ = ExtractTime(text, TagRevisit)
		}
	}
	if out.FollowUpDate == "" {
		if v, ok := ExtractTag(text, TagFollowUp); ok {
			out.FollowUpDate = v
			out.FollowUpTime, _ = ExtractTime(text, TagFollowUp)
		}
	}
	if out.DropReason == "" {
		out.DropReason, _ = ExtractTag(text, TagReason)
	}
	if !out.Dropped {
		_, out.Dropped = ExtractTag(text, TagDropped)
	}
	if out.TotalVisits == nil {
		if v, ok := ExtractTag(text, TagTotalVisits); ok {
			if n, err := strconv.Atoi(v); err == nil {
				out.TotalVisits = &n
			}
		}
	}
	if out.Feedback == "" {
		out.Feedback, _ = ExtractTag(text, TagFeedback)
	}

	return out
}

// Package remarks reads and writes the bracketed tags that pipeline operations
// embed in free-text remark fields, and the structured annotations that
// replace them.
//
// New writes persist Annotations in the record's metadata column and still
// append the tag text to remarks so existing consumers keep working. Reads go
// through Resolve, which prefers metadata and falls back to tag extraction for
// rows written before metadata existed.
package remarks

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Known tag labels.
const (
	TagRevisit     = "Re-visit"
	TagFollowUp    = "Follow-up"
	TagReason      = "Reason"
	TagTotalVisits = "Total visits"
	TagDropped     = "Dropped"
	TagFeedback    = "Feedback"
)

const (
	dateLayout = "2 Jan 2006"
	timeLayout = "15:04"
)

var (
	revisitPattern     = regexp.MustCompile(`\[Re-visit:\s*([^\]]+?)\s*\]`)
	followUpPattern    = regexp.MustCompile(`\[Follow-up:\s*([^\]]+?)\s*\]`)
	reasonPattern      = regexp.MustCompile(`Reason:\s*([^.\]\n]+)`)
	totalVisitsPattern = regexp.MustCompile(`Total visits:\s*(\d+)`)
	droppedPattern     = regexp.MustCompile(`\[Dropped\]`)
)

// ExtractTag returns the value of the last occurrence of tag in remarks.
// Re-visit and Follow-up return only the date part of "<date> at <time>".
// Dropped is a presence marker and returns the label itself. Any other label
// is looked up as "[Label: value]" first and then as a bare "Label: value"
// fragment ending at the next period.
func ExtractTag(remarks, tag string) (string, bool) {
	if strings.TrimSpace(remarks) == "" || strings.TrimSpace(tag) == "" {
		return "", false
	}

	switch tag {
	case TagRevisit:
		return datePart(lastMatch(revisitPattern, remarks))
	case TagFollowUp:
		return datePart(lastMatch(followUpPattern, remarks))
	case TagReason:
		return nonEmpty(lastMatch(reasonPattern, remarks))
	case TagTotalVisits:
		return nonEmpty(lastMatch(totalVisitsPattern, remarks))
	case TagDropped:
		if droppedPattern.MatchString(remarks) {
			return TagDropped, true
		}
		return "", false
	}

	label := regexp.QuoteMeta(tag)
	if v, ok := nonEmpty(lastMatch(regexp.MustCompile(`\[`+label+`:\s*([^\]]*?)\s*\]`), remarks)); ok {
		return v, true
	}
	return nonEmpty(lastMatch(regexp.MustCompile(`(?:^|[\s\]])`+label+`:\s*([^.\]\n]+)`), remarks))
}

// ExtractTime returns the "<time>" part of a Re-visit or Follow-up tag.
func ExtractTime(remarks, tag string) (string, bool) {
	var p *regexp.Regexp
	switch tag {
	case TagRevisit:
		p = revisitPattern
	case TagFollowUp:
		p = followUpPattern
	default:
		return "", false
	}
	raw, ok := lastMatch(p, remarks)
	if !ok {
		return "", false
	}
	_, after, found := strings.Cut(raw, " at ")
	if !found {
		return "", false
	}
	return nonEmpty(after, true)
}

func lastMatch(p *regexp.Regexp, s string) (string, bool) {
	matches := p.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return "", false
	}
	last := matches[len(matches)-1]
	if len(last) < 2 {
		return "", false
	}
	return last[1], true
}

func datePart(raw string, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	date, _, _ := strings.Cut(raw, " at ")
	return nonEmpty(date, true)
}

func nonEmpty(v string, ok bool) (string, bool) {
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RevisitTag renders "[Re-visit: 17 Feb 2026 at 10:00]".
func RevisitTag(at time.Time) string {
	return "[" + TagRevisit + ": " + at.Format(dateLayout) + " at " + at.Format(timeLayout) + "]"
}

// FollowUpTag renders "[Follow-up: 17 Feb 2026 at 10:00]".
func FollowUpTag(at time.Time) string {
	return "[" + TagFollowUp + ": " + at.Format(dateLayout) + " at " + at.Format(timeLayout) + "]"
}

// DroppedTag renders "[Dropped] Reason: <reason>. Total visits: <n>".
func DroppedTag(reason string, totalVisits int) string {
	return "[" + TagDropped + "] " + ReasonFragment(reason) + " " + TagTotalVisits + ": " + strconv.Itoa(totalVisits)
}

// ReasonFragment renders "Reason: <reason>." with periods removed from the
// reason so extraction stops where the writer ended.
func ReasonFragment(reason string) string {
	reason = strings.TrimSpace(strings.ReplaceAll(reason, ".", ","))
	if reason == "" {
		reason = "unspecified"
	}
	return TagReason + ": " + reason + "."
}

// Append adds a line to existing remarks.
func Append(existing string, parts ...string) string {
	line := strings.TrimSpace(strings.Join(nonBlank(parts), " "))
	if line == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n" + line
}

func nonBlank(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/platform/phone"
	"hoareca_growth_hub/platform/sanitize"
	"hoareca_growth_hub/platform/validator"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reject is a sheet row that could not be imported. Line is 1-based and
// counts the header.
type Reject struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult holds the rows ready to insert and the ones skipped.
type ImportResult struct {
	Prospects []repository.CreateProspectParams
	Rejects   []Reject
}

// ReadProspects parses a prospect sheet. Rows are validated the same way the
// API validates a new prospect; a row repeating an earlier (name, pincode)
// pair is rejected.
func ReadProspects(r io.Reader, m HeaderMapping) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, fmt.Errorf("empty sheet")
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := m.resolve(header)
	if err != nil {
		return ImportResult{}, err
	}

	title := cases.Title(language.English)
	seen := make(map[string]int)
	result := ImportResult{Prospects: []repository.CreateProspectParams{}, Rejects: []Reject{}}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		p, reason := buildProspect(record, cols, title)
		if reason != "" {
			result.Rejects = append(result.Rejects, Reject{Line: line, Reason: reason})
			continue
		}
		key := strings.ToLower(p.RestaurantName) + "|" + p.Pincode
		if first, ok := seen[key]; ok {
			result.Rejects = append(result.Rejects, Reject{Line: line, Reason: fmt.Sprintf("duplicate of line %d", first)})
			continue
		}
		seen[key] = line
		result.Prospects = append(result.Prospects, p)
	}
	return result, nil
}

func buildProspect(record []string, c columns, title cases.Caser) (repository.CreateProspectParams, string) {
	name := sanitize.StripHTML(field(record, c.name))
	if name == "" {
		return repository.CreateProspectParams{}, "restaurant name is required"
	}
	pincode := field(record, c.pincode)
	if !validator.IsPincode(pincode) {
		return repository.CreateProspectParams{}, fmt.Sprintf("invalid pincode %q", pincode)
	}

	p := repository.CreateProspectParams{
		RestaurantName: title.String(name),
		Pincode:        pincode,
		Locality:       sanitize.StripHTML(field(record, c.locality)),
		Status:         domain.ProspectAvailable,
		Tag:            domain.TagNew,
		Remarks:        sanitize.Note(field(record, c.remarks)),
	}

	if contact := field(record, c.contact); contact != "" {
		if !phone.IsValid(contact) {
			return repository.CreateProspectParams{}, fmt.Sprintf("invalid contact number %q", contact)
		}
		p.ContactNumber = phone.NormalizeE164(contact)
	}

	lat, lon := field(record, c.lat), field(record, c.lon)
	if (lat == "") != (lon == "") {
		return repository.CreateProspectParams{}, "latitude and longitude must be given together"
	}
	if lat != "" {
		latV, err1 := strconv.ParseFloat(lat, 64)
		lonV, err2 := strconv.ParseFloat(lon, 64)
		if err1 != nil || err2 != nil || latV < -90 || latV > 90 || lonV < -180 || lonV > 180 {
			return repository.CreateProspectParams{}, "invalid coordinates"
		}
		p.Latitude, p.Longitude = &latV, &lonV
	}

	if email := strings.ToLower(field(record, c.mappedTo)); email != "" {
		p.MappedTo = email
		p.Status = domain.ProspectAssigned
		p.Tag = domain.TagInProgress
	}
	return p, ""
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

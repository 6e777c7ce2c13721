// Package csvio reads prospect sheets and writes lead exports for the
// pipeline-csv tool.
package csvio

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HeaderMapping names the source column for each prospect field. Matching
// is case-insensitive and ignores surrounding spaces.
type HeaderMapping struct {
	RestaurantName string `yaml:"restaurant_name"`
	Pincode        string `yaml:"pincode"`
	Locality       string `yaml:"locality"`
	ContactNumber  string `yaml:"contact_number"`
	Latitude       string `yaml:"latitude"`
	Longitude      string `yaml:"longitude"`
	MappedTo       string `yaml:"mapped_to"`
	Remarks        string `yaml:"remarks"`
}

// DefaultMapping matches the column names of the prospect table itself.
func DefaultMapping() HeaderMapping {
	return HeaderMapping{
		RestaurantName: "restaurant_name",
		Pincode:        "pincode",
		Locality:       "locality",
		ContactNumber:  "contact_number",
		Latitude:       "latitude",
		Longitude:      "longitude",
		MappedTo:       "mapped_to",
		Remarks:        "remarks",
	}
}

// LoadMapping reads a YAML mapping file. Fields it leaves out keep their
// default column names.
func LoadMapping(path string) (HeaderMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HeaderMapping{}, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	return ParseMapping(data)
}

func ParseMapping(data []byte) (HeaderMapping, error) {
	m := DefaultMapping()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return HeaderMapping{}, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}
	if strings.TrimSpace(m.RestaurantName) == "" || strings.TrimSpace(m.Pincode) == "" {
		return HeaderMapping{}, fmt.Errorf("mapping must name restaurant_name and pincode columns")
	}
	return m, nil
}

// columns resolves the mapping against a header row. Optional fields whose
// column is absent map to -1.
type columns struct {
	name, pincode, locality, contact, lat, lon, mappedTo, remarks int
}

func (m HeaderMapping) resolve(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	find := func(name string) int {
		if i, ok := index[normalizeHeader(name)]; ok && name != "" {
			return i
		}
		return -1
	}

	c := columns{
		name:     find(m.RestaurantName),
		pincode:  find(m.Pincode),
		locality: find(m.Locality),
		contact:  find(m.ContactNumber),
		lat:      find(m.Latitude),
		lon:      find(m.Longitude),
		mappedTo: find(m.MappedTo),
		remarks:  find(m.Remarks),
	}
	if c.name < 0 {
		return columns{}, fmt.Errorf("column %q not found in header", m.RestaurantName)
	}
	if c.pincode < 0 {
		return columns{}, fmt.Errorf("column %q not found in header", m.Pincode)
	}
	return c, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

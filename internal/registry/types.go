package registry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SupportedSchemaMajor is the highest schema_version major component this
// client understands. Documents with a different major are rejected with a
// data-kind error; minor bumps and unknown fields are tolerated.
const SupportedSchemaMajor = 1

// Manifest is the root index document. It is the only entry point for
// discovering which records exist; ids listed in the catalog are expected,
// but not guaranteed, to resolve to fetchable records.
type Manifest struct {
	SchemaVersion string              `json:"schema_version"`
	LastUpdated   time.Time           `json:"last_updated"`
	Catalog       map[string][]string `json:"catalog"`
}

// NumericRange is an inclusive [Min, Max] interval on a numeric facet,
// e.g. monthly visitor capacity or price band.
type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the center of the range, used for weighted ranking.
func (r NumericRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Contains reports whether v lies within the range, bounds included.
func (r NumericRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Record is one described entity fetched from the store. Providers and
// deployable templates share this shape; the category distinguishes them.
type Record struct {
	ID                string                  `json:"id"`
	Category          string                  `json:"category"`
	DisplayFields     map[string]string       `json:"display_fields"`
	NumericRanges     map[string]NumericRange `json:"numeric_ranges"`
	FeatureTags       []string                `json:"feature_tags"`
	CompatibilityTags []string                `json:"compatibility_tags"`
	SchemaVersion     string                  `json:"schema_version"`
	LastUpdated       time.Time               `json:"last_updated"`
}

// HasAllFeatures reports whether the record's feature tags are a superset
// of the required tags.
func (r *Record) HasAllFeatures(required []string) bool {
	return containsAll(r.FeatureTags, required)
}

// HasAllCompatibility reports whether the record's compatibility tags are a
// superset of the required tags.
func (r *Record) HasAllCompatibility(required []string) bool {
	return containsAll(r.CompatibilityTags, required)
}

func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// schemaMajor extracts the major component of a schema_version string such
// as "1.2" or "1".
func schemaMajor(version string) (int, error) {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(strings.TrimSpace(major))
	if err != nil {
		return 0, fmt.Errorf("invalid schema_version %q", version)
	}
	return n, nil
}

// checkSchemaVersion rejects documents whose major version this client does
// not understand.
func checkSchemaVersion(key, version string) error {
	if version == "" {
		return NewDataError(key, "document is missing schema_version", nil)
	}
	major, err := schemaMajor(version)
	if err != nil {
		return NewDataError(key, err.Error(), nil)
	}
	if major != SupportedSchemaMajor {
		return NewDataError(key,
			fmt.Sprintf("unsupported schema_version %q (client supports major %d)", version, SupportedSchemaMajor), nil)
	}
	return nil
}

// ParseManifest deserializes and validates a manifest document. Unknown
// fields are ignored for forward compatibility.
func ParseManifest(key string, raw []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, NewDataError(key, "parsing manifest JSON", err)
	}
	if err := checkSchemaVersion(key, m.SchemaVersion); err != nil {
		return nil, err
	}
	if m.Catalog == nil {
		m.Catalog = map[string][]string{}
	}
	return &m, nil
}

// ParseRecord deserializes and validates a record document. The category and
// id from the storage key fill in fields the document omits.
func ParseRecord(key, category, id string, raw []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, NewDataError(key, "parsing record JSON", err)
	}
	if err := checkSchemaVersion(key, r.SchemaVersion); err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = id
	}
	if r.Category == "" {
		r.Category = category
	}
	return &r, nil
}

// Package normalize converts heterogeneous provider payloads into the fixed
// CompanyRecord shape. The provider returns either an array of (possibly
// nested) objects or a columnar {fields, rows} structure; the variant is
// resolved once at ingestion and absent data degrades to defaults, never to
// an error.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

const unknownCompanyName = "Unknown Company"

// maxDisplayIndustries caps the industry tags shown on a record.
const maxDisplayIndustries = 3

// RecordSet holds provider records after shape resolution.
type RecordSet struct {
	records []map[string]any
}

// columnarPayload is the {fields, rows} response shape of the screening
// endpoint. Rows are positional; fields carry the column names.
type columnarPayload struct {
	Fields []struct {
		APIName string `json:"api_name"`
	} `json:"fields"`
	Rows [][]any `json:"rows"`
}

// errorPayload is the provider's structured error response.
type errorPayload struct {
	Error any `json:"error"`
}

// Decode resolves a raw provider response into a RecordSet. It accepts an
// object array, a single object, or the columnar shape. A provider error
// payload decodes as an error; any other unrecognized structure yields an
// empty set so a bad page never aborts the batch.
func Decode(raw json.RawMessage) (*RecordSet, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return &RecordSet{}, nil
	}

	if raw[0] == '[' {
		var objects []map[string]any
		if err := json.Unmarshal(raw, &objects); err != nil {
			return nil, eris.Wrap(err, "normalize: decode object array")
		}
		return &RecordSet{records: objects}, nil
	}

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, eris.Wrap(err, "normalize: decode response")
	}

	if _, ok := shape["error"]; ok {
		var ep errorPayload
		_ = json.Unmarshal(raw, &ep)
		return nil, eris.Errorf("normalize: provider error: %v", ep.Error)
	}

	if _, ok := shape["rows"]; ok {
		var cp columnarPayload
		if err := json.Unmarshal(raw, &cp); err != nil {
			return nil, eris.Wrap(err, "normalize: decode columnar payload")
		}
		return fromColumnar(cp), nil
	}

	// A bare object is a single record.
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, eris.Wrap(err, "normalize: decode object")
	}
	if len(object) == 0 {
		return &RecordSet{}, nil
	}
	return &RecordSet{records: []map[string]any{object}}, nil
}

// fromColumnar zips rows against field names by position. Rows shorter than
// the field list simply omit the trailing keys.
func fromColumnar(cp columnarPayload) *RecordSet {
	names := make([]string, len(cp.Fields))
	for i, f := range cp.Fields {
		names[i] = f.APIName
	}

	records := make([]map[string]any, 0, len(cp.Rows))
	for _, row := range cp.Rows {
		record := make(map[string]any, len(names))
		for i, name := range names {
			if i >= len(row) {
				break
			}
			record[name] = row[i]
		}
		records = append(records, record)
	}
	return &RecordSet{records: records}
}

// Len returns the number of records in the set.
func (rs *RecordSet) Len() int {
	return len(rs.records)
}

// Records exposes the raw records for normalization.
func (rs *RecordSet) Records() []map[string]any {
	return rs.records
}

// Companies normalizes every record in the set.
func (rs *RecordSet) Companies() []model.CompanyRecord {
	out := make([]model.CompanyRecord, 0, len(rs.records))
	for _, r := range rs.records {
		out = append(out, Company(r))
	}
	return out
}

// Company maps one raw record into a CompanyRecord. Field paths follow the
// provider's nested lookup shape first and fall back to the flattened column
// names the screening endpoint emits.
func Company(raw map[string]any) model.CompanyRecord {
	rec := model.CompanyRecord{
		Name:   stringValue(raw, "company_name"),
		Domain: stringValue(raw, "company_website_domain"),
	}
	if rec.Name == "" {
		rec.Name = unknownCompanyName
	}

	rec.Headcount = Headcount(raw)
	rec.Revenue = Revenue(raw)
	rec.Headquarters = Headquarters(raw)
	rec.FoundedYear = stringValue(raw, "year_founded")

	rec.Industries = Industries(raw)
	rec.LinkedinIndustries = LinkedinIndustries(raw)

	return rec
}

// DisplayIndustries caps the tag list for presentation. Scoring always sees
// the full union; the cap applies only at the response boundary.
func DisplayIndustries(tags []string) []string {
	if len(tags) > maxDisplayIndustries {
		return tags[:maxDisplayIndustries]
	}
	return tags
}

// Headcount extracts the LinkedIn headcount, defaulting to 0 (unknown).
func Headcount(raw map[string]any) int {
	if nested, ok := raw["headcount"].(map[string]any); ok {
		return intValue(nested, "linkedin_headcount")
	}
	if v := intValue(raw, "headcount.linkedin_headcount"); v != 0 {
		return v
	}
	return intValue(raw, "linkedin_headcount")
}

// Revenue extracts the lower-bound revenue estimate, defaulting to 0.
func Revenue(raw map[string]any) int {
	return intValue(raw, "estimated_revenue_lower_bound_usd")
}

// Headquarters returns the first non-empty of the known HQ fields.
func Headquarters(raw map[string]any) string {
	for _, key := range []string{"headquarters", "hq_street_address", "hq_country"} {
		if v := stringValue(raw, key); v != "" {
			return v
		}
	}
	return ""
}

// Industries returns the deduplicated union of LinkedIn industries and
// Crunchbase categories, insertion order preserved.
func Industries(raw map[string]any) []string {
	var tags []string
	if taxonomy, ok := raw["taxonomy"].(map[string]any); ok {
		tags = append(tags, stringSlice(taxonomy, "linkedin_industries")...)
		tags = append(tags, stringSlice(taxonomy, "crunchbase_categories")...)
	} else {
		tags = append(tags, stringSlice(raw, "taxonomy.linkedin_industries")...)
		tags = append(tags, stringSlice(raw, "taxonomy.crunchbase_categories")...)
		tags = append(tags, stringSlice(raw, "linkedin_industries")...)
		tags = append(tags, stringSlice(raw, "crunchbase_categories")...)
	}
	return dedupe(tags)
}

// LinkedinIndustries returns only the LinkedIn industry tags, used by the
// quality sub-score's classification-depth check.
func LinkedinIndustries(raw map[string]any) []string {
	if taxonomy, ok := raw["taxonomy"].(map[string]any); ok {
		return stringSlice(taxonomy, "linkedin_industries")
	}
	if tags := stringSlice(raw, "taxonomy.linkedin_industries"); len(tags) > 0 {
		return tags
	}
	return stringSlice(raw, "linkedin_industries")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// intValue coerces a field to int, degrading to 0 on anything unusable.
func intValue(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func stringValue(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// year_founded sometimes arrives numeric
		return strconv.Itoa(int(v))
	default:
		return ""
	}
}

func stringSlice(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

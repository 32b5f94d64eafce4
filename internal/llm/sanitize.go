package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/preventio/duerp-import/constants"
)

var (
	reSIRET    = regexp.MustCompile(`^\d{14}$`)
	cotationKs = []string{"frequency", "probability", "severity", "control"}
)

// SanitizeStructure normalizes a model response so the overall document can
// still validate: cotation values are coerced to integers and clamped into
// range, malformed optionals are dropped, and missing arrays or confidence
// get their defaults. Required fields are never invented.
func SanitizeStructure(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	for _, k := range []string{"work_units", "risks", "measures"} {
		if _, ok := m[k].([]any); !ok {
			m[k] = []any{}
		}
	}

	// confidence: default 0, clamp 0..1
	switch c := m["confidence"].(type) {
	case float64:
		if c < 0 {
			m["confidence"] = 0.0
		} else if c > 1 {
			m["confidence"] = 1.0
		}
	default:
		m["confidence"] = 0.0
	}

	// company.siret: strip spacing; drop when not 14 digits
	if comp, ok := m["company"].(map[string]any); ok {
		if v, ok := comp["siret"].(string); ok {
			s := strings.ReplaceAll(strings.TrimSpace(v), " ", "")
			if reSIRET.MatchString(s) {
				comp["siret"] = s
			} else {
				delete(comp, "siret")
				dropped = append(dropped, "company.siret")
			}
		}
		if _, ok := comp["legal_name"].(string); !ok {
			// a company block without a legal name is unusable
			delete(m, "company")
			dropped = append(dropped, "company")
		}
	}

	if risks, ok := m["risks"].([]any); ok {
		for _, rv := range risks {
			risk, ok := rv.(map[string]any)
			if !ok {
				continue
			}
			for _, k := range cotationKs {
				risk[k] = clampCotationValue(risk[k])
			}
			if v, ok := risk["exposed_persons"]; ok {
				if n, ok := asInt(v); ok && n >= 0 {
					risk["exposed_persons"] = n
				} else {
					delete(risk, "exposed_persons")
					dropped = append(dropped, "risks.exposed_persons")
				}
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// clampCotationValue coerces strings and floats to an int inside the
// cotation range; anything unusable becomes the minimum.
func clampCotationValue(v any) int {
	n, ok := asInt(v)
	if !ok {
		return constants.CotationMin
	}
	if n < constants.CotationMin {
		return constants.CotationMin
	}
	if n > constants.CotationMax {
		return constants.CotationMax
	}
	return n
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

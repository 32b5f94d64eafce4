package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preventio/duerp-import/constants"
)

func TestStructureSchemaAcceptsWellFormedDocument(t *testing.T) {
	doc := []byte(`{
		"company": {"legal_name": "Menuiserie Dupont", "siret": "12345678900011", "employee_count": 12},
		"work_units": [{"name": "Atelier", "exposed_count": 4}],
		"risks": [{
			"work_unit_name": "Atelier",
			"hazard": "Chute de hauteur",
			"dangerous_situation": "Travail sur échelle",
			"frequency": 3, "probability": 3, "severity": 4, "control": 2
		}],
		"measures": [{"description": "Installer des garde-corps", "type": "collective"}],
		"confidence": 0.85
	}`)
	require.NoError(t, ValidateJSONAgainstSchema(BuildStructureJSONSchema(), doc))
}

func TestStructureSchemaRejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"cotation out of range", `{"work_units":[],"measures":[],"confidence":0,
			"risks":[{"work_unit_name":"A","hazard":"x","frequency":5,"probability":1,"severity":1,"control":1}]}`},
		{"missing cotation factor", `{"work_units":[],"measures":[],"confidence":0,
			"risks":[{"work_unit_name":"A","hazard":"x","frequency":1,"probability":1,"severity":1}]}`},
		{"risk without hazard", `{"work_units":[],"measures":[],"confidence":0,
			"risks":[{"work_unit_name":"A","frequency":1,"probability":1,"severity":1,"control":1}]}`},
		{"bad siret", `{"company":{"legal_name":"Acme","siret":"123"},
			"work_units":[],"risks":[],"measures":[],"confidence":0}`},
		{"company without legal name", `{"company":{"address":"1 rue X"},
			"work_units":[],"risks":[],"measures":[],"confidence":0}`},
		{"confidence above one", `{"work_units":[],"risks":[],"measures":[],"confidence":1.5}`},
		{"missing arrays", `{"confidence":0}`},
		{"unknown top-level key", `{"work_units":[],"risks":[],"measures":[],"confidence":0,"extra":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, ValidateJSONAgainstSchema(BuildStructureJSONSchema(), []byte(tt.doc)))
		})
	}
}

func TestEnrichSchema(t *testing.T) {
	good := []byte(`{"risks":[{"work_unit_name":"Atelier","hazard":"bruit",
		"frequency":2,"probability":2,"severity":2,"control":2}],
		"measures":[{"description":"Protections auditives"}]}`)
	require.NoError(t, ValidateJSONAgainstSchema(BuildEnrichJSONSchema(), good))

	missing := []byte(`{"risks":[]}`)
	require.Error(t, ValidateJSONAgainstSchema(BuildEnrichJSONSchema(), missing))
}

func TestSystemPromptVariesWithTier(t *testing.T) {
	adv := BuildSystemPrompt(StructureRequest{Tier: constants.AITierAdvanced})
	basic := BuildSystemPrompt(StructureRequest{Tier: constants.AITierBasic})

	assert.Contains(t, adv, "optional fields")
	assert.Contains(t, basic, "leaving an optional field out")
	assert.NotEqual(t, adv, basic)
}

func TestUserPromptTruncatesLongText(t *testing.T) {
	long := make([]byte, 30000)
	for i := range long {
		long[i] = 'a'
	}
	p := BuildUserPrompt(StructureRequest{Text: string(long), Format: constants.FormatTabular, FilenameHint: "duerp.txt"})

	assert.Contains(t, p, "Filename: duerp.txt")
	assert.Contains(t, p, "…(truncated)")
	assert.Less(t, len(p), 26000)
}

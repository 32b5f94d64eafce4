package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDefaultsMissingArraysAndConfidence(t *testing.T) {
	out, dropped, err := SanitizeStructure([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, dropped)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, []any{}, m["work_units"])
	assert.Equal(t, []any{}, m["risks"])
	assert.Equal(t, []any{}, m["measures"])
	assert.Equal(t, 0.0, m["confidence"])
}

func TestSanitizeClampsConfidence(t *testing.T) {
	out, _, err := SanitizeStructure([]byte(`{"confidence": 3.5}`))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, 1.0, m["confidence"])
}

func TestSanitizeCoercesCotations(t *testing.T) {
	in := []byte(`{"risks":[{"work_unit_name":"Atelier","hazard":"bruit",
		"frequency":"3","probability":2.0,"severity":9,"control":"souvent"}],
		"work_units":[],"measures":[],"confidence":0.8}`)

	out, _, err := SanitizeStructure(in)
	require.NoError(t, err)

	var m struct {
		Risks []struct {
			Frequency   int `json:"frequency"`
			Probability int `json:"probability"`
			Severity    int `json:"severity"`
			Control     int `json:"control"`
		} `json:"risks"`
	}
	require.NoError(t, json.Unmarshal(out, &m))
	require.Len(t, m.Risks, 1)
	assert.Equal(t, 3, m.Risks[0].Frequency) // numeric string parsed
	assert.Equal(t, 2, m.Risks[0].Probability)
	assert.Equal(t, 4, m.Risks[0].Severity) // clamped down
	assert.Equal(t, 1, m.Risks[0].Control)  // unusable -> minimum
}

func TestSanitizeSIRET(t *testing.T) {
	out, dropped, err := SanitizeStructure([]byte(
		`{"company":{"legal_name":"Acme","siret":"123 456 789 00011"}}`))
	require.NoError(t, err)
	assert.Empty(t, dropped)

	var m struct {
		Company struct {
			SIRET string `json:"siret"`
		} `json:"company"`
	}
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "12345678900011", m.Company.SIRET)
}

func TestSanitizeDropsBadSIRET(t *testing.T) {
	out, dropped, err := SanitizeStructure([]byte(
		`{"company":{"legal_name":"Acme","siret":"not-a-siret"}}`))
	require.NoError(t, err)
	assert.Contains(t, dropped, "company.siret")

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	comp := m["company"].(map[string]any)
	_, has := comp["siret"]
	assert.False(t, has)
}

func TestSanitizeDropsCompanyWithoutLegalName(t *testing.T) {
	out, dropped, err := SanitizeStructure([]byte(`{"company":{"address":"1 rue de la Paix"}}`))
	require.NoError(t, err)
	assert.Contains(t, dropped, "company")

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	_, has := m["company"]
	assert.False(t, has)
}

func TestSanitizeDropsNegativeExposedPersons(t *testing.T) {
	out, dropped, err := SanitizeStructure([]byte(`{"risks":[
		{"work_unit_name":"A","hazard":"x","frequency":1,"probability":1,"severity":1,"control":1,"exposed_persons":-2}]}`))
	require.NoError(t, err)
	assert.Contains(t, dropped, "risks.exposed_persons")

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	risk := m["risks"].([]any)[0].(map[string]any)
	_, has := risk["exposed_persons"]
	assert.False(t, has)
}

func TestSanitizedOutputValidates(t *testing.T) {
	// a messy but salvageable response must pass strict validation after
	// sanitation
	in := []byte(`{"company":{"legal_name":"Acme","siret":"123 456 789 00011"},
		"risks":[{"work_unit_name":"Atelier","hazard":"bruit",
		"frequency":"5","probability":0,"severity":2,"control":2}],
		"confidence":1.2}`)

	require.Error(t, ValidateJSONAgainstSchema(BuildStructureJSONSchema(), in))

	out, _, err := SanitizeStructure(in)
	require.NoError(t, err)
	require.NoError(t, ValidateJSONAgainstSchema(BuildStructureJSONSchema(), out))
}

func TestSanitizeRejectsNonJSON(t *testing.T) {
	_, _, err := SanitizeStructure([]byte("not json"))
	require.Error(t, err)
}

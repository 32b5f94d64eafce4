package llm

import (
	"strings"

	"github.com/preventio/duerp-import/constants"
)

// BuildSystemPrompt composes the system message for the structuring pass.
// The advanced tier asks for richer optional fields; the basic tier keeps
// the output minimal to stay cheap and predictable.
func BuildSystemPrompt(req StructureRequest) string {
	parts := []string{
		"You are a workplace risk-assessment (DUERP) document parser. Return ONLY JSON that matches the provided JSON Schema.",
		"The document describes an employer, its work units (unités de travail), identified risks, and prevention measures.",
		"Cotation factors (frequency, probability, severity, control) are integers from 1 to 4; when the source uses another scale, map it proportionally.",
		"Every risk must name the work unit it belongs to, exactly as that unit appears in 'work_units'.",
		"Set 'confidence' to your overall confidence in the extraction (0..1).",
		"Never output null. If a field is not present in the document, omit it.",
	}
	if req.Tier == constants.AITierAdvanced {
		parts = append(parts,
			"Fill the optional fields (dangerous_situation, exposed_persons, existing_measures, company address and SIRET) whenever the document supports them.")
	} else {
		parts = append(parts,
			"Prefer leaving an optional field out over guessing its value.")
	}
	if n := strings.TrimSpace(req.TenantName); n != "" {
		parts = append(parts, "The importing organization is: "+n+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and the extracted text. Long
// documents are truncated; legacy DUERP exports front-load the tables the
// model needs.
func BuildUserPrompt(req StructureRequest) string {
	const maxChars = 24000

	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("Declared format: ")
	b.WriteString(string(req.Format))
	b.WriteString("\n\nDocument text:\n")

	text := strings.TrimSpace(req.Text)
	if len(text) > maxChars {
		b.WriteString(text[:maxChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

// BuildEnrichSystemPrompt composes the system message for the post-completion
// enrichment pass.
func BuildEnrichSystemPrompt(sector string) string {
	parts := []string{
		"You are a workplace risk-prevention assistant. Return ONLY JSON that matches the provided JSON Schema.",
		"Given an employer's validated risk assessment, suggest ADDITIONAL risks and prevention measures that are plausibly missing.",
		"Do not repeat risks or measures already present.",
		"Cotation factors are integers from 1 to 4.",
	}
	if s := strings.TrimSpace(sector); s != "" {
		parts = append(parts, "The employer operates in this sector: "+s+".")
	}
	return strings.Join(parts, " ")
}

package entity

// Structure is the intermediate representation of an import's extracted or
// human-validated content. It has no identity of its own: it exists only
// between extraction and materialization and is never persisted as an
// entity. Required vs. optional fields are explicit; everything the AI may
// omit is either a pointer or carries a documented default.
type Structure struct {
	Company    *StructureCompany  `json:"company,omitempty"`
	WorkUnits  []StructureUnit    `json:"work_units"`
	Risks      []StructureRisk    `json:"risks"`
	Measures   []StructureMeasure `json:"measures"`
	Confidence float64            `json:"confidence"`
}

// StructureCompany is the employer block of a structure.
type StructureCompany struct {
	LegalName     string `json:"legal_name"`
	SIRET         string `json:"siret,omitempty"`
	Address       string `json:"address,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
}

// StructureUnit is one work unit row.
type StructureUnit struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ExposedCount int    `json:"exposed_count,omitempty"`
}

// StructureRisk is one risk row. Hazard and WorkUnitName are required for
// materialization; a row missing either is recorded as a row error.
// Cotation values outside 1..4 are clamped, never rejected.
type StructureRisk struct {
	WorkUnitName       string `json:"work_unit_name"`
	Hazard             string `json:"hazard"`
	DangerousSituation string `json:"dangerous_situation,omitempty"`
	ExposedPersons     int    `json:"exposed_persons,omitempty"`
	Frequency          int    `json:"frequency"`
	Probability        int    `json:"probability"`
	Severity           int    `json:"severity"`
	Control            int    `json:"control"`
	ExistingMeasures   string `json:"existing_measures,omitempty"`
}

// StructureMeasure is one proposed remediation measure.
type StructureMeasure struct {
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
}

// Empty reports whether the structure carries nothing to materialize.
func (s *Structure) Empty() bool {
	if s == nil {
		return true
	}
	return s.Company == nil && len(s.WorkUnits) == 0 && len(s.Risks) == 0 && len(s.Measures) == 0
}

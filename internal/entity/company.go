package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company represents an employer for data transfer between layers.
// Unique per tenant by SIRET when present, else by legal name.
type Company struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	LegalName     string    `json:"legal_name"`
	SIRET         *string   `json:"siret,omitempty"`
	Address       *string   `json:"address,omitempty"`
	EmployeeCount *int      `json:"employee_count,omitempty"`
	Sector        *string   `json:"sector,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Site represents a company location. The first "main site" per company is
// created lazily during materialization.
type Site struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Name      string    `json:"name"`
	IsMain    bool      `json:"is_main"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkUnit represents a unit of work within a site; unique per site by name.
type WorkUnit struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	SiteID       uuid.UUID `json:"site_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	ExposedCount *int      `json:"exposed_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

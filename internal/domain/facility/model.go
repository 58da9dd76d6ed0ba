package facility

import (
	"time"

	"github.com/google/uuid"
)

// Facility maps to the facilities table. MonthlyCost is in KRW.
type Facility struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	FacilityType  string    `db:"facility_type" json:"facility_type"`
	Address       string    `db:"address" json:"address"`
	Region        string    `db:"region" json:"region"`
	Phone         string    `db:"phone" json:"phone"`
	TotalBeds     int       `db:"total_beds" json:"total_beds"`
	AvailableBeds int       `db:"available_beds" json:"available_beds"`
	MonthlyCost   int64     `db:"monthly_cost" json:"monthly_cost"`
	Specialties   []string  `db:"specialties" json:"specialties"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SearchFilter narrows a facility search. Zero values match everything.
type SearchFilter struct {
	Type      string `json:"type,omitempty"`
	Region    string `json:"region,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	MaxCost   int64  `json:"max_cost,omitempty"`
	Available bool   `json:"available,omitempty"`
}

// SearchResult is one page of search hits. It is what the cache stores.
type SearchResult struct {
	Items []*Facility `json:"items"`
	Total int         `json:"total"`
}

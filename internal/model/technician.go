package model

import (
	"net/mail"
	"strings"
	"time"

	"agriland/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TechnicianStatus is the availability of a field technician
type TechnicianStatus string

const (
	TechnicianActive   TechnicianStatus = "active"
	TechnicianInactive TechnicianStatus = "inactive"
	TechnicianOnLeave  TechnicianStatus = "on_leave"
)

// ParseTechnicianStatus accepts any letter case
func ParseTechnicianStatus(s string) (TechnicianStatus, bool) {
	st := TechnicianStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case TechnicianActive, TechnicianInactive, TechnicianOnLeave:
		return st, true
	}
	return "", false
}

// Technician is a field agent performing soil measurements
type Technician struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FullName       string `gorm:"not null;size:255" json:"fullName"`
	Email          string `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Phone          string `gorm:"not null;size:32" json:"phone"`
	WhatsApp       string `gorm:"column:whatsapp;size:32" json:"whatsapp,omitempty"`
	Avatar         string `gorm:"type:text" json:"avatar,omitempty"`
	Specialization string `gorm:"size:120" json:"specialization,omitempty"`

	CoverageRegions   datatypes.JSONSlice[string] `gorm:"not null" json:"coverageRegions"`
	Status            TechnicianStatus            `gorm:"size:16;not null;index" json:"status"`
	CompletedMissions int                         `gorm:"not null;default:0" json:"completedMissions"`
	Notes             string                      `gorm:"type:text" json:"notes,omitempty"`
}

// TableName specifies the table name for Technician
func (Technician) TableName() string {
	return "technicians"
}

// BeforeCreate assigns an id and the default status
func (t *Technician) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TechnicianActive
	}
	return nil
}

// IsActive reports whether the technician can take missions
func (t *Technician) IsActive() bool {
	return t.Status == TechnicianActive
}

// Covers reports whether region is one of the technician's coverage regions.
// Regions match exactly, as in the land filters.
func (t *Technician) Covers(region string) bool {
	for _, r := range t.CoverageRegions {
		if r == region {
			return true
		}
	}
	return false
}

// Validate checks identity, contact and coverage
func (t *Technician) Validate() error {
	if strings.TrimSpace(t.FullName) == "" {
		return apperr.Validation("fullName", "is required")
	}
	if _, err := mail.ParseAddress(t.Email); err != nil {
		return apperr.Validation("email", "is not a valid address")
	}
	if strings.TrimSpace(t.Phone) == "" {
		return apperr.Validation("phone", "is required")
	}
	if len(t.CoverageRegions) == 0 {
		return apperr.Validation("coverageRegions", "must contain at least one region")
	}
	for _, r := range t.CoverageRegions {
		if strings.TrimSpace(r) == "" {
			return apperr.Validation("coverageRegions", "must not contain empty names")
		}
	}
	if t.Status != "" {
		if _, ok := ParseTechnicianStatus(string(t.Status)); !ok {
			return apperr.Validation("status", "unknown status %q", t.Status)
		}
	}
	if t.CompletedMissions < 0 {
		return apperr.Validation("completedMissions", "must not be negative")
	}
	return nil
}

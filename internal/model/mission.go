package model

import (
	"strings"
	"time"

	"agriland/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MissionStatus is the lifecycle state of a field mission
type MissionStatus string

const (
	MissionAssigned   MissionStatus = "assigned"
	MissionInProgress MissionStatus = "in_progress"
	MissionCompleted  MissionStatus = "completed"
	MissionCancelled  MissionStatus = "cancelled"
)

// ActiveMissionStatuses are the statuses of a mission still bound to its request
var ActiveMissionStatuses = []MissionStatus{MissionAssigned, MissionInProgress}

// ParseMissionStatus accepts any letter case
func ParseMissionStatus(s string) (MissionStatus, bool) {
	st := MissionStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case MissionAssigned, MissionInProgress, MissionCompleted, MissionCancelled:
		return st, true
	}
	return "", false
}

// IsActive reports whether the mission may still be started, updated or completed
func (s MissionStatus) IsActive() bool {
	return s == MissionAssigned || s == MissionInProgress
}

// OwnerInfo is a snapshot of the parcel owner's contact
type OwnerInfo struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// LandInfo describes a parcel surveyed for a request with no linked land
type LandInfo struct {
	Title     string   `json:"title"`
	Surface   float64  `json:"surface"`
	Type      LandType `json:"type"`
	Price     float64  `json:"price"`
	PriceUnit string   `json:"priceUnit,omitempty"`
	Address   Address  `json:"address"`
}

// Validate checks the technician-supplied parcel description
func (i *LandInfo) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return apperr.Validation("landInfo.title", "is required")
	}
	if i.Surface <= 0 {
		return apperr.Validation("landInfo.surface", "must be greater than 0")
	}
	if _, ok := ParseLandType(string(i.Type)); !ok {
		return apperr.Validation("landInfo.type", "must be RENT or SALE")
	}
	if i.Price < 0 {
		return apperr.Validation("landInfo.price", "must not be negative")
	}
	if strings.TrimSpace(i.Address.Region) == "" {
		return apperr.Validation("landInfo.address.region", "is required")
	}
	return nil
}

// Sensor identifies the device used for a measurement
type Sensor struct {
	Type         string `json:"type"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// MeasurementLocation is the GPS fix taken during a measurement
type MeasurementLocation struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Altitude *float64 `json:"altitude,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// PerformedBy is a snapshot of the technician who measured
type PerformedBy struct {
	TechnicianID string `json:"technicianId"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone,omitempty"`
}

// SoilMeasurement is the technician-authored result of a completed mission.
// It is written once and never modified.
type SoilMeasurement struct {
	Sensor         Sensor               `json:"sensor"`
	Location       *MeasurementLocation `json:"location"`
	PerformedBy    PerformedBy          `json:"performedBy"`
	SoilParameters SoilParameters       `json:"soilParameters"`
	MeasuredAt     time.Time            `json:"measuredAt"`
	Notes          string               `json:"notes,omitempty"`
	Photos         []string             `json:"photos,omitempty"`
	Attachments    []string             `json:"attachments,omitempty"`
}

// Validate checks sensor, GPS fix and soil values
func (m *SoilMeasurement) Validate() error {
	if strings.TrimSpace(m.Sensor.Type) == "" {
		return apperr.Validation("soilMeasurement.sensor.type", "is required")
	}
	if strings.TrimSpace(m.Sensor.Model) == "" {
		return apperr.Validation("soilMeasurement.sensor.model", "is required")
	}
	if m.Location == nil {
		return apperr.Validation("soilMeasurement.location", "is required")
	}
	if err := NewGeoPoint(m.Location.Lat, m.Location.Lng).Validate(); err != nil {
		return err
	}
	if m.Location.Accuracy != nil && *m.Location.Accuracy < 0 {
		return apperr.Validation("soilMeasurement.location.accuracy", "must not be negative")
	}
	return m.SoilParameters.Validate()
}

// Mission binds one soil-analysis request to one technician
type Mission struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	RequestID    string        `gorm:"type:varchar(36);not null;index" json:"requestId"`
	TechnicianID string        `gorm:"type:varchar(36);not null;index" json:"technicianId"`
	Status       MissionStatus `gorm:"size:16;not null;index" json:"status"`

	ScheduledDate time.Time  `gorm:"not null;index" json:"scheduledDate"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`

	Instructions    string                      `gorm:"type:text" json:"instructions,omitempty"`
	TechnicianNotes string                      `gorm:"type:text" json:"technicianNotes,omitempty"`
	Attachments     datatypes.JSONSlice[string] `json:"attachments,omitempty"`

	OwnerInfo       *OwnerInfo       `gorm:"serializer:json" json:"ownerInfo,omitempty"`
	LandInfo        *LandInfo        `gorm:"serializer:json" json:"landInfo,omitempty"`
	SoilMeasurement *SoilMeasurement `gorm:"serializer:json" json:"soilMeasurement,omitempty"`
	LandID          *string          `gorm:"type:varchar(36);index" json:"landId,omitempty"`
}

// TableName specifies the table name for Mission
func (Mission) TableName() string {
	return "missions"
}

// BeforeCreate assigns an id; every mission starts assigned
func (m *Mission) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MissionAssigned
	}
	return nil
}

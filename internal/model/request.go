package model

import (
	"net/mail"
	"strings"
	"time"

	"agriland/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of a soil-analysis request
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestProcessing RequestStatus = "processing"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// RequestOrigin tells how a request was submitted
type RequestOrigin string

const (
	OriginStandalone  RequestOrigin = "standalone"
	OriginLandListing RequestOrigin = "land_listing"
)

// ParseRequestStatus accepts any letter case
func ParseRequestStatus(s string) (RequestStatus, bool) {
	st := RequestStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case RequestPending, RequestProcessing, RequestCompleted, RequestCancelled:
		return st, true
	}
	return "", false
}

// requestTransitions is the request state machine.
// completed and cancelled are terminal. processing goes back to pending only
// when its mission is cancelled or deleted, so the request can be reassigned.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:    {RequestProcessing, RequestCancelled},
	RequestProcessing: {RequestCompleted, RequestCancelled, RequestPending},
	RequestCompleted:  {},
	RequestCancelled:  {},
}

// CanTransition reports whether a request may move from one status to another in one step
func CanTransition(from, to RequestStatus) bool {
	for _, s := range requestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable in one step from s
func NextStatuses(s RequestStatus) []RequestStatus {
	next := requestTransitions[s]
	out := make([]RequestStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves s
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// Coordinates is an optional position given by the requester
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SoilAnalysisRequest asks for a technician to measure a parcel's soil
type SoilAnalysisRequest struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FullName    string       `gorm:"not null;size:255" json:"fullName"`
	Email       string       `gorm:"not null;size:255;index" json:"email"`
	Phone       string       `gorm:"not null;size:32" json:"phone"`
	Region      string       `gorm:"not null;size:120;index" json:"region"`
	Commune     string       `gorm:"size:120" json:"commune"`
	Surface     float64      `gorm:"not null" json:"surface"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Coordinates *Coordinates `gorm:"serializer:json" json:"coordinates,omitempty"`

	LandID *string       `gorm:"type:varchar(36);index" json:"landId,omitempty"`
	Origin RequestOrigin `gorm:"size:16;not null;index" json:"origin"`
	Status RequestStatus `gorm:"size:16;not null;index" json:"status"`
}

// TableName specifies the table name for SoilAnalysisRequest
func (SoilAnalysisRequest) TableName() string {
	return "soil_analysis_requests"
}

// BeforeCreate assigns an id; every request starts pending
func (r *SoilAnalysisRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = RequestPending
	if r.Origin == "" {
		r.Origin = OriginStandalone
	}
	return nil
}

// Validate checks contact and parcel fields
func (r *SoilAnalysisRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return apperr.Validation("fullName", "is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return apperr.Validation("email", "is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Validation("email", "is not a valid address")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return apperr.Validation("phone", "is required")
	}
	if strings.TrimSpace(r.Region) == "" {
		return apperr.Validation("region", "is required")
	}
	if r.Surface <= 0 {
		return apperr.Validation("surface", "must be greater than 0")
	}
	switch r.Origin {
	case "", OriginStandalone:
	case OriginLandListing:
		if r.LandID == nil || *r.LandID == "" {
			return apperr.Validation("landId", "is required when origin is land_listing")
		}
	default:
		return apperr.Validation("origin", "unknown origin %q", r.Origin)
	}
	if r.Coordinates != nil {
		if err := NewGeoPoint(r.Coordinates.Lat, r.Coordinates.Lng).Validate(); err != nil {
			return err
		}
	}
	return nil
}

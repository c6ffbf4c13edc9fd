package model

import (
	"math"
	"strings"
	"time"

	"agriland/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LandType is the commercial offer of a listing
type LandType string

const (
	LandTypeRent LandType = "RENT"
	LandTypeSale LandType = "SALE"
)

// LandStatus is the commercial availability of a listing
type LandStatus string

const (
	LandStatusAvailable LandStatus = "AVAILABLE"
	LandStatusPending   LandStatus = "PENDING"
	LandStatusSold      LandStatus = "SOLD"
	LandStatusRented    LandStatus = "RENTED"
)

// ParseLandType accepts any letter case
func ParseLandType(s string) (LandType, bool) {
	t := LandType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case LandTypeRent, LandTypeSale:
		return t, true
	}
	return "", false
}

// ParseLandStatus accepts any letter case
func ParseLandStatus(s string) (LandStatus, bool) {
	st := LandStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case LandStatusAvailable, LandStatusPending, LandStatusSold, LandStatusRented:
		return st, true
	}
	return "", false
}

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a point from latitude and longitude
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Validate checks latitude and longitude bounds
func (p GeoPoint) Validate() error {
	if p.Lat() < -90 || p.Lat() > 90 {
		return apperr.Validation("location.coordinates", "latitude %g out of range", p.Lat())
	}
	if p.Lng() < -180 || p.Lng() > 180 {
		return apperr.Validation("location.coordinates", "longitude %g out of range", p.Lng())
	}
	return nil
}

// Address is the administrative location of a parcel
type Address struct {
	City        string `gorm:"size:120" json:"city"`
	Region      string `gorm:"size:120;index" json:"region"`
	Commune     string `gorm:"size:120" json:"commune"`
	Village     string `gorm:"size:120" json:"village,omitempty"`
	FullAddress string `gorm:"type:text" json:"fullAddress,omitempty"`
	Country     string `gorm:"size:80" json:"country,omitempty"`
}

// Land represents an agricultural parcel listing
type Land struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OwnerID     string     `gorm:"size:64;not null;index" json:"ownerId"`
	Title       string     `gorm:"not null;size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Surface     float64    `gorm:"not null;index" json:"surface"` // hectares
	Type        LandType   `gorm:"size:8;not null;index" json:"type"`
	Price       float64    `gorm:"not null;index" json:"price"`
	PriceUnit   string     `gorm:"size:32" json:"priceUnit"`
	Status      LandStatus `gorm:"size:16;not null;index" json:"status"`

	Address          Address                    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Location         *GeoPoint                  `gorm:"serializer:json" json:"location,omitempty"`
	SoilParameters   *SoilParameters            `gorm:"serializer:json" json:"soilParameters,omitempty"`
	RecommendedCrops datatypes.JSONSlice[string] `json:"recommendedCrops"`
	Images           datatypes.JSONSlice[string] `json:"images"`

	PricePerHectare float64 `gorm:"-" json:"pricePerHectare"`
}

// TableName specifies the table name for Land
func (Land) TableName() string {
	return "lands"
}

// BeforeCreate assigns an id and the initial status
func (l *Land) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = LandStatusAvailable
	}
	return nil
}

// AfterFind fills derived fields
func (l *Land) AfterFind(tx *gorm.DB) error {
	l.Derive()
	return nil
}

// Derive recomputes fields that are not stored
func (l *Land) Derive() {
	l.PricePerHectare = PricePerHectare(l.Price, l.Surface)
}

// PricePerHectare returns round(price / surface), or 0 when surface is not positive
func PricePerHectare(price, surface float64) float64 {
	if surface <= 0 {
		return 0
	}
	return math.Round(price / surface)
}

// HasSoilData reports whether a mission has measured this land
func (l *Land) HasSoilData() bool {
	return l.SoilParameters != nil
}

// Validate checks the owner-controlled attributes
func (l *Land) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return apperr.Validation("title", "is required")
	}
	if strings.TrimSpace(l.OwnerID) == "" {
		return apperr.Validation("ownerId", "is required")
	}
	if l.Surface <= 0 {
		return apperr.Validation("surface", "must be greater than 0")
	}
	if l.Price < 0 {
		return apperr.Validation("price", "must not be negative")
	}
	if _, ok := ParseLandType(string(l.Type)); !ok {
		return apperr.Validation("type", "must be RENT or SALE")
	}
	if l.Status != "" {
		if _, ok := ParseLandStatus(string(l.Status)); !ok {
			return apperr.Validation("status", "unknown status %q", l.Status)
		}
	}
	if strings.TrimSpace(l.Address.Region) == "" {
		return apperr.Validation("address.region", "is required")
	}
	if l.Location != nil {
		if err := l.Location.Validate(); err != nil {
			return err
		}
	}
	if l.SoilParameters != nil {
		if err := l.SoilParameters.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// landTransitions lists the statuses reachable from each status
var landTransitions = map[LandStatus][]LandStatus{
	LandStatusAvailable: {LandStatusPending, LandStatusRented, LandStatusSold},
	LandStatusPending:   {LandStatusAvailable, LandStatusRented, LandStatusSold},
	LandStatusRented:    {LandStatusAvailable},
	LandStatusSold:      {},
}

// CanTransitionTo reports whether the land may move to status next.
// RENTED is reserved to RENT listings and SOLD to SALE listings.
func (l *Land) CanTransitionTo(next LandStatus) bool {
	if next == LandStatusRented && l.Type != LandTypeRent {
		return false
	}
	if next == LandStatusSold && l.Type != LandTypeSale {
		return false
	}
	for _, s := range landTransitions[l.Status] {
		if s == next {
			return true
		}
	}
	return false
}

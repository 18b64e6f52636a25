package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultParentingStyle = "Balanced"

// DefaultPriorities is used when a family has not ranked anything yet.
var DefaultPriorities = []string{"Social", "Emotional", "Physical", "Cognitive"}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FamilyProfile is the input aggregate handed to the recommendation pipeline.
// PrioritiesRanked is ordered, index 0 being the most important.
type FamilyProfile struct {
	FamilyID         uuid.UUID          `json:"family_id,omitempty"`
	ChildAge         int                `json:"child_age"`
	WeeklyBudget     float64            `json:"weekly_budget"`
	ParentingStyle   string             `json:"parenting_style,omitempty"`
	PrioritiesRanked []string           `json:"priorities_ranked,omitempty"`
	SupportAvailable []string           `json:"support_available,omitempty"`
	TransportMode    string             `json:"transport_mode,omitempty"`
	AreaType         string             `json:"area_type,omitempty"`
	HoursPerWeek     int                `json:"hours_per_week,omitempty"`
	NumberOfKids     int                `json:"number_of_kids,omitempty"`
	Traits           map[string]float64 `json:"traits,omitempty"`
	Location         *GeoPoint          `json:"location,omitempty"`
	ZipCode          string             `json:"zip_code,omitempty"`
	Region           string             `json:"region,omitempty"`
}

func (p FamilyProfile) MonthlyBudget() float64 {
	return p.WeeklyBudget * 4
}

// WithDefaults fills the optional fields the way the intake form does.
func (p FamilyProfile) WithDefaults() FamilyProfile {
	if strings.TrimSpace(p.ParentingStyle) == "" {
		p.ParentingStyle = DefaultParentingStyle
	}
	if len(p.PrioritiesRanked) == 0 {
		p.PrioritiesRanked = append([]string(nil), DefaultPriorities...)
	}
	if p.AreaType == "" {
		p.AreaType = "Urban"
	}
	if p.NumberOfKids <= 0 {
		p.NumberOfKids = 1
	}
	return p
}

// Family is the persisted form of a profile.
type Family struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Profile   FamilyProfile `json:"profile"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// KidTraits lists the trait keys the intake form collects.
var KidTraits = []string{"creativity", "sociability", "outdoors", "energy", "curiosity", "kinesthetic"}

// RecommendationRequest is the inbound body of POST /recommendations.
// Pointers let validation tell a missing age or budget apart from zero.
type RecommendationRequest struct {
	FamilyID         *uuid.UUID         `json:"family_id,omitempty"`
	ChildAge         *int               `json:"child_age" validate:"required,gte=0,lte=21"`
	WeeklyBudget     *float64           `json:"weekly_budget" validate:"required,gte=0"`
	ParentingStyle   string             `json:"parenting_style,omitempty" validate:"omitempty,max=64"`
	PrioritiesRanked []string           `json:"priorities_ranked,omitempty" validate:"omitempty,max=12,dive,required,max=64"`
	SupportAvailable []string           `json:"support_available,omitempty" validate:"omitempty,dive,max=64"`
	TransportMode    string             `json:"transport_mode,omitempty" validate:"omitempty,max=32"`
	AreaType         string             `json:"area_type,omitempty" validate:"omitempty,max=32"`
	HoursPerWeek     int                `json:"hours_per_week,omitempty" validate:"gte=0,lte=168"`
	NumberOfKids     int                `json:"number_of_kids,omitempty" validate:"gte=0,lte=20"`
	Traits           map[string]float64 `json:"traits,omitempty" validate:"omitempty,dive,keys,max=32,endkeys,gte=0,lte=1"`
	Latitude         *float64           `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude        *float64           `json:"longitude,omitempty" validate:"omitempty,longitude"`
	ZipCode          string             `json:"zip_code,omitempty" validate:"omitempty,max=16"`
	Region           string             `json:"region,omitempty" validate:"omitempty,max=64"`
}

// Profile converts a validated request into a FamilyProfile.
func (r RecommendationRequest) Profile() FamilyProfile {
	p := FamilyProfile{
		ParentingStyle:   r.ParentingStyle,
		PrioritiesRanked: r.PrioritiesRanked,
		SupportAvailable: r.SupportAvailable,
		TransportMode:    r.TransportMode,
		AreaType:         r.AreaType,
		HoursPerWeek:     r.HoursPerWeek,
		NumberOfKids:     r.NumberOfKids,
		Traits:           r.Traits,
		ZipCode:          r.ZipCode,
		Region:           r.Region,
	}
	if r.FamilyID != nil {
		p.FamilyID = *r.FamilyID
	}
	if r.ChildAge != nil {
		p.ChildAge = *r.ChildAge
	}
	if r.WeeklyBudget != nil {
		p.WeeklyBudget = *r.WeeklyBudget
	}
	if r.Latitude != nil && r.Longitude != nil {
		p.Location = &GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return p
}

// UpsertFamilyRequest is the body of POST/PUT /families.
type UpsertFamilyRequest struct {
	Name    string                `json:"name" validate:"required,max=128"`
	Profile RecommendationRequest `json:"profile"`
}

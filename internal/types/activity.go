package types

import (
	"time"

	"github.com/google/uuid"
)

// Development domains an activity can target.
const (
	CategoryPhysical  = "physical"
	CategoryCognitive = "cognitive"
	CategorySocial    = "social"
	CategoryEmotional = "emotional"
)

// Candidate sources.
const (
	SourcePlaces   = "places"
	SourceCatalog  = "catalog"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Placeholders used when a provider does not know a contact field.
const (
	PlaceholderPhone   = "See website"
	PlaceholderAddress = "See website"
	PlaceholderDetails = "Contact for details"
)

type ActivityLocation struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type ActivityContact struct {
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// CandidateActivity is the one shape every source is normalized into.
type CandidateActivity struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	Description           string           `json:"description"`
	Category              string           `json:"category"`
	PriceMonthly          *float64         `json:"price_monthly"`
	AgeRange              [2]int           `json:"age_range"`
	Location              ActivityLocation `json:"location"`
	Contact               ActivityContact  `json:"contact"`
	MatchScore            float64          `json:"match_score"`
	Explanation           string           `json:"explanation"`
	PracticalTips         string           `json:"practical_tips,omitempty"`
	DevelopmentalBenefits string           `json:"developmental_benefits,omitempty"`
	TimeCommitment        string           `json:"time_commitment,omitempty"`
	Rating                float64          `json:"rating,omitempty"`
	RatingCount           int              `json:"rating_count,omitempty"`
	Source                string           `json:"source"`
}

// Price returns the monthly price, treating nil as free.
func (c CandidateActivity) Price() float64 {
	if c.PriceMonthly == nil {
		return 0
	}
	return *c.PriceMonthly
}

// Activity is a catalog record as stored in Postgres.
type Activity struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name" validate:"required,max=200"`
	Description           string    `json:"description,omitempty" validate:"max=4000"`
	Category              string    `json:"category" validate:"required,max=64"`
	PriceMonthly          *float64  `json:"price_monthly,omitempty" validate:"omitempty,gte=0"`
	AgeMin                *int      `json:"age_min,omitempty" validate:"omitempty,gte=0,lte=21"`
	AgeMax                *int      `json:"age_max,omitempty" validate:"omitempty,gte=0,lte=21"`
	Region                string    `json:"region,omitempty" validate:"max=64"`
	AreaType              string    `json:"area_type,omitempty" validate:"max=32"`
	Address               string    `json:"address,omitempty" validate:"max=300"`
	Latitude              *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude             *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Phone                 string    `json:"phone,omitempty" validate:"max=64"`
	Website               string    `json:"website,omitempty" validate:"omitempty,url"`
	PracticalTips         string    `json:"practical_tips,omitempty"`
	DevelopmentalBenefits string    `json:"developmental_benefits,omitempty"`
	TimeCommitment        string    `json:"time_commitment,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ActivityFilter narrows a catalog query. Zero values mean "no filter".
type ActivityFilter struct {
	MaxPrice *float64 `json:"max_price,omitempty"`
	Age      *int     `json:"age,omitempty"`
	Region   string   `json:"region,omitempty"`
	AreaType string   `json:"area_type,omitempty"`
	Category string   `json:"category,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// RecommendationResponse is what the HTTP layer returns. ProfileFingerprint
// ties a cached result to the profile it was resolved for.
type RecommendationResponse struct {
	FamilyID           *uuid.UUID                     `json:"family_id,omitempty"`
	Strategy           string                         `json:"strategy"`
	Recommendations    []CandidateActivity            `json:"recommendations"`
	Grouped            map[string][]CandidateActivity `json:"grouped,omitempty"`
	Cached             bool                           `json:"cached"`
	GeneratedAt        time.Time                      `json:"generated_at"`
	ProfileFingerprint string                         `json:"profile_fingerprint,omitempty"`
}

// RecommendationRecord is a persisted resolve result.
type RecommendationRecord struct {
	ID              uuid.UUID           `json:"id"`
	FamilyID        uuid.UUID           `json:"family_id"`
	Strategy        string              `json:"strategy"`
	Recommendations []CandidateActivity `json:"recommendations"`
	CreatedAt       time.Time           `json:"created_at"`
}

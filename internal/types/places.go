package types

// Place is a single hit from a places text search.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rating      float64  `json:"rating"`
	RatingCount int      `json:"rating_count"`
	PriceLevel  *int     `json:"price_level,omitempty"`
	Location    GeoPoint `json:"location"`
	Address     string   `json:"address,omitempty"`
	Types       []string `json:"types,omitempty"`
	// Category is set by the search that produced the hit, not by the provider.
	Category string        `json:"category,omitempty"`
	Details  *PlaceDetails `json:"details,omitempty"`
}

type PlaceDetails struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// NearbySearch describes one GET /nearby-places call.
type NearbySearch struct {
	Latitude     float64 `validate:"latitude"`
	Longitude    float64 `validate:"longitude"`
	Category     string  `validate:"omitempty,oneof=physical cognitive social emotional"`
	RadiusMeters int     `validate:"omitempty,gte=100,lte=50000"`
	OpenNow      bool
}

package models

import (
	"time"

	id "landregistry/pkg/domain"
)

// ListingStatus is the marketplace state of a materialized property.
type ListingStatus string

const (
	ListingActive ListingStatus = "active"
	ListingSold   ListingStatus = "sold"
)

// Property is the read-model record materialized exactly once when a
// verification case resolves as verified. It is a live entity mutated by
// later sale operations; the originating case becomes immutable history.
type Property struct {
	SurveyID       id.SurveyID       `json:"survey_id"`
	Owner          id.WalletAddress  `json:"owner_address"`
	VerificationID id.VerificationID `json:"verification_id"`
	ForSale        bool              `json:"for_sale"`
	PriceInWei     string            `json:"price_in_wei"`
	Status         ListingStatus     `json:"status"`
	Location       string            `json:"location"`
	Area           float64           `json:"area"`
	AreaUnit       string            `json:"area_unit"`
	PropertyType   string            `json:"property_type"`
	MaterializedAt time.Time         `json:"materialized_at"`
}

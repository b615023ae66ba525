package events

import "time"

// Domain constants
const (
	ImageDomain   = "image"
	ImageExchange = "imagematch.image"

	ListingImageExchange = "listing.image"
)

// Event names
const (
	ImageLabeledEvent           = "image.labeled"
	ListingImageDiscoveredEvent = "listing.image.discovered"
)

// Event versions
const (
	EventVersionV1 = "v1"
)

// ImageLabeledPayload is published once per persisted label.
type ImageLabeledPayload struct {
	ID        int64     `json:"id"`
	ZillowID  string    `json:"zillowId"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Reviewer  string    `json:"reviewer"`
	LabeledAt time.Time `json:"labeledAt"`
}

// ListingImageDiscoveredPayload is produced upstream by the listing crawler;
// each one becomes an unlabeled image.
type ListingImageDiscoveredPayload struct {
	ZillowID string `json:"zillowId" validate:"required,max=15"`
	URL      string `json:"url" validate:"required,url"`
}

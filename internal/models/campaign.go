package models

import "time"

// Campaign statuses
const (
	CampaignStatusDraft = "draft"
	CampaignStatusSent  = "sent"
)

// Campaign represents one A/B test unit bundling variations and recipients
type Campaign struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CompanyName     string    `json:"company_name"`
	ProductName     string    `json:"product_name"`
	OfferDetails    string    `json:"offer_details"`
	CampaignType    string    `json:"campaign_type"`
	TargetAudience  string    `json:"target_audience"`
	Status          string    `json:"status"` // draft, sent
	TotalRecipients int       `json:"total_recipients"`
	CreatedAt       time.Time `json:"created_at"`
}

// Variation is one candidate subject+body pair within a campaign.
// Immutable after creation.
type Variation struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// CampaignListFilter for filtering campaigns
type CampaignListFilter struct {
	Status string
	Limit  int
	Offset int
}

package models

import "time"

// Recipient delivery statuses
const (
	RecipientStatusPending = "pending"
	RecipientStatusSent    = "sent"
	RecipientStatusFailed  = "failed"
)

// Recipient represents a single campaign recipient
type Recipient struct {
	ID            string     `json:"id"`
	CampaignID    string     `json:"campaign_id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Variation     string     `json:"variation"`
	Status        string     `json:"status"` // pending, sent, failed
	TrackingToken string     `json:"tracking_token"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	OpenedAt      *time.Time `json:"opened_at,omitempty"`
	ClickedAt     *time.Time `json:"clicked_at,omitempty"`
	ConvertedAt   *time.Time `json:"converted_at,omitempty"`
}

// FunnelCounts holds raw per-variation counts over sent recipients
type FunnelCounts struct {
	TotalSent int `json:"total_sent"`
	Opened    int `json:"opened"`
	Clicked   int `json:"clicked"`
	Converted int `json:"converted"`
}

// FunnelMetrics holds counts plus derived rates for one variation
type FunnelMetrics struct {
	FunnelCounts
	OpenRate         float64 `json:"open_rate"`
	ClickRate        float64 `json:"click_rate"`
	ConversionRate   float64 `json:"conversion_rate"`
	ClickThroughRate float64 `json:"click_through_rate"` // click-to-open, not click-to-sent
}

// RecipientImportResult holds the result of a CSV import
type RecipientImportResult struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/splitmail/internal/models"
)

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign in draft status
func (r *CampaignRepository) Create(c *models.Campaign) error {
	c.ID = uuid.New().String()
	c.Status = models.CampaignStatusDraft
	c.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO campaigns (id, name, company_name, product_name, offer_details, campaign_type, target_audience, status, total_recipients, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.CompanyName, c.ProductName, c.OfferDetails, c.CampaignType, c.TargetAudience, c.Status, c.TotalRecipients, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// GetByID returns a campaign by ID, or nil if not found
func (r *CampaignRepository) GetByID(id string) (*models.Campaign, error) {
	c := &models.Campaign{}
	err := r.db.QueryRow(`
		SELECT id, name, company_name, product_name, offer_details, campaign_type, target_audience, status, total_recipients, created_at
		FROM campaigns WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CompanyName, &c.ProductName, &c.OfferDetails, &c.CampaignType, &c.TargetAudience, &c.Status, &c.TotalRecipients, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns campaigns ordered by creation time, newest first
func (r *CampaignRepository) List(filter models.CampaignListFilter) ([]models.Campaign, error) {
	query := `
		SELECT id, name, company_name, product_name, offer_details, campaign_type, target_audience, status, total_recipients, created_at
		FROM campaigns WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.CompanyName, &c.ProductName, &c.OfferDetails, &c.CampaignType, &c.TargetAudience, &c.Status, &c.TotalRecipients, &c.CreatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateStatus updates the campaign lifecycle status
func (r *CampaignRepository) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE campaigns SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}
	return nil
}

// UpdateTotalRecipients sets the recipient count on the campaign
func (r *CampaignRepository) UpdateTotalRecipients(id string, total int) error {
	_, err := r.db.Exec(`UPDATE campaigns SET total_recipients = ? WHERE id = ?`, total, id)
	if err != nil {
		return fmt.Errorf("failed to update recipient count: %w", err)
	}
	return nil
}

// AddVariation attaches a variation to a campaign. Variations are
// immutable after creation.
func (r *CampaignRepository) AddVariation(v *models.Variation) error {
	v.ID = uuid.New().String()
	v.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO variations (id, campaign_id, name, subject, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.CampaignID, v.Name, v.Subject, v.Body, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create variation: %w", err)
	}
	return nil
}

// GetVariations returns a campaign's variations in insertion order.
// The order is load-bearing: assignment indexes into it.
func (r *CampaignRepository) GetVariations(campaignID string) ([]models.Variation, error) {
	rows, err := r.db.Query(`
		SELECT id, campaign_id, name, subject, body, created_at
		FROM variations WHERE campaign_id = ?
		ORDER BY created_at, id`, campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get variations: %w", err)
	}
	defer rows.Close()

	var variations []models.Variation
	for rows.Next() {
		var v models.Variation
		if err := rows.Scan(&v.ID, &v.CampaignID, &v.Name, &v.Subject, &v.Body, &v.CreatedAt); err != nil {
			return nil, err
		}
		variations = append(variations, v)
	}
	return variations, rows.Err()
}

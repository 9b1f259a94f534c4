package repository

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/splitmail/internal/models"
)

type RecipientRepository struct {
	db *sql.DB
}

func NewRecipientRepository(db *sql.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

// Add inserts a single recipient with a fresh ID and tracking token
func (r *RecipientRepository) Add(rec *models.Recipient) error {
	rec.ID = uuid.New().String()
	if rec.TrackingToken == "" {
		rec.TrackingToken = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = models.RecipientStatusPending
	}

	_, err := r.db.Exec(`
		INSERT INTO recipients (id, campaign_id, email, first_name, last_name, variation, status, tracking_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CampaignID, rec.Email, rec.FirstName, rec.LastName, rec.Variation, rec.Status, rec.TrackingToken,
	)
	if err != nil {
		return fmt.Errorf("failed to add recipient: %w", err)
	}
	return nil
}

// GetByToken returns the recipient owning a tracking token, or nil
func (r *RecipientRepository) GetByToken(token string) (*models.Recipient, error) {
	return r.get(`WHERE tracking_token = ?`, token)
}

// GetByID returns a recipient by ID, or nil
func (r *RecipientRepository) GetByID(id string) (*models.Recipient, error) {
	return r.get(`WHERE id = ?`, id)
}

func (r *RecipientRepository) get(where string, arg any) (*models.Recipient, error) {
	rec := &models.Recipient{}
	err := r.db.QueryRow(`
		SELECT id, campaign_id, email, first_name, last_name, variation, status, tracking_token, sent_at, opened_at, clicked_at, converted_at
		FROM recipients `+where, arg,
	).Scan(&rec.ID, &rec.CampaignID, &rec.Email, &rec.FirstName, &rec.LastName, &rec.Variation, &rec.Status, &rec.TrackingToken,
		&rec.SentAt, &rec.OpenedAt, &rec.ClickedAt, &rec.ConvertedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListPending returns a campaign's recipients still awaiting delivery
func (r *RecipientRepository) ListPending(campaignID string) ([]models.Recipient, error) {
	rows, err := r.db.Query(`
		SELECT id, campaign_id, email, first_name, last_name, variation, status, tracking_token, sent_at, opened_at, clicked_at, converted_at
		FROM recipients WHERE campaign_id = ? AND status = ?`,
		campaignID, models.RecipientStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var rec models.Recipient
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Email, &rec.FirstName, &rec.LastName, &rec.Variation, &rec.Status, &rec.TrackingToken,
			&rec.SentAt, &rec.OpenedAt, &rec.ClickedAt, &rec.ConvertedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// ListByCampaign returns all recipients of a campaign regardless of status
func (r *RecipientRepository) ListByCampaign(campaignID string) ([]models.Recipient, error) {
	rows, err := r.db.Query(`
		SELECT id, campaign_id, email, first_name, last_name, variation, status, tracking_token, sent_at, opened_at, clicked_at, converted_at
		FROM recipients WHERE campaign_id = ?`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var rec models.Recipient
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Email, &rec.FirstName, &rec.LastName, &rec.Variation, &rec.Status, &rec.TrackingToken,
			&rec.SentAt, &rec.OpenedAt, &rec.ClickedAt, &rec.ConvertedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// MarkSent records a successful delivery
func (r *RecipientRepository) MarkSent(id string, at time.Time) error {
	_, err := r.db.Exec(`UPDATE recipients SET status = ?, sent_at = ? WHERE id = ?`,
		models.RecipientStatusSent, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark recipient sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery
func (r *RecipientRepository) MarkFailed(id string) error {
	_, err := r.db.Exec(`UPDATE recipients SET status = ? WHERE id = ?`,
		models.RecipientStatusFailed, id)
	if err != nil {
		return fmt.Errorf("failed to mark recipient failed: %w", err)
	}
	return nil
}

// TrackOpen records the first open for a tracking token. The write is a
// single conditional UPDATE so concurrent opens cannot both win; later
// opens are no-ops.
func (r *RecipientRepository) TrackOpen(token string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE recipients SET opened_at = ?
		WHERE tracking_token = ? AND opened_at IS NULL`,
		at, token)
	if err != nil {
		return fmt.Errorf("failed to track open: %w", err)
	}
	return nil
}

// TrackClick records the first click for a tracking token, with the same
// first-write-wins semantics as TrackOpen.
func (r *RecipientRepository) TrackClick(token string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE recipients SET clicked_at = ?
		WHERE tracking_token = ? AND clicked_at IS NULL`,
		at, token)
	if err != nil {
		return fmt.Errorf("failed to track click: %w", err)
	}
	return nil
}

// FunnelCounts aggregates per-variation funnel counts over recipients
// that were actually sent. Reads current state; a concurrent tracking
// write may or may not be visible.
func (r *RecipientRepository) FunnelCounts(campaignID string) (map[string]models.FunnelCounts, error) {
	rows, err := r.db.Query(`
		SELECT variation,
		       COUNT(*) AS total_sent,
		       COUNT(CASE WHEN opened_at IS NOT NULL THEN 1 END) AS opened,
		       COUNT(CASE WHEN clicked_at IS NOT NULL THEN 1 END) AS clicked,
		       COUNT(CASE WHEN converted_at IS NOT NULL THEN 1 END) AS converted
		FROM recipients
		WHERE campaign_id = ? AND status = ?
		GROUP BY variation`,
		campaignID, models.RecipientStatusSent,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate funnel counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]models.FunnelCounts)
	for rows.Next() {
		var name string
		var c models.FunnelCounts
		if err := rows.Scan(&name, &c.TotalSent, &c.Opened, &c.Clicked, &c.Converted); err != nil {
			return nil, err
		}
		counts[name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Variations that were assigned but never successfully sent still
	// show up in results, with zero counts.
	assigned, err := r.db.Query(`SELECT DISTINCT variation FROM recipients WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned variations: %w", err)
	}
	defer assigned.Close()

	for assigned.Next() {
		var name string
		if err := assigned.Scan(&name); err != nil {
			return nil, err
		}
		if _, ok := counts[name]; !ok {
			counts[name] = models.FunnelCounts{}
		}
	}
	return counts, assigned.Err()
}

// ImportCSV imports recipients from CSV data. The header must contain an
// email column; first_name and last_name are optional. Rows with a blank
// email are skipped. assign maps each email to a variation name.
func (r *RecipientRepository) ImportCSV(campaignID string, reader io.Reader, assign func(email string) string) (*models.RecipientImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	emailIdx, ok := cols["email"]
	if !ok {
		return nil, fmt.Errorf("CSV must have an email column")
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &models.RecipientImportResult{}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Total++

		email := ""
		if emailIdx < len(record) {
			email = strings.TrimSpace(record[emailIdx])
		}
		if email == "" {
			result.Skipped++
			continue
		}

		rec := &models.Recipient{
			CampaignID: campaignID,
			Email:      email,
			FirstName:  field(record, "first_name"),
			LastName:   field(record, "last_name"),
			Variation:  assign(email),
		}
		if err := r.Add(rec); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", email, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}

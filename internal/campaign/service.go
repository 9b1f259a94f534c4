// Package campaign orchestrates campaign creation, recipient upload,
// sending and A/B result reporting.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/foxzi/splitmail/internal/abtest"
	"github.com/foxzi/splitmail/internal/genai"
	"github.com/foxzi/splitmail/internal/mailer"
	"github.com/foxzi/splitmail/internal/metrics"
	"github.com/foxzi/splitmail/internal/models"
	"github.com/foxzi/splitmail/internal/repository"
)

var (
	ErrNotFound      = errors.New("campaign not found")
	ErrNoVariations  = errors.New("campaign has no variations")
	ErrMissingFields = errors.New("missing required fields")
)

// maxReportedErrors caps the error list returned by Send
const maxReportedErrors = 10

// Generator produces raw variation text from a prompt. Implemented by
// the genai client; callers fall back to static variations on error.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	campaigns  *repository.CampaignRepository
	recipients *repository.RecipientRepository
	generator  Generator
	sender     mailer.Sender
	tracking   mailer.TrackingConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(
	campaigns *repository.CampaignRepository,
	recipients *repository.RecipientRepository,
	generator Generator,
	sender mailer.Sender,
	tracking mailer.TrackingConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		campaigns:  campaigns,
		recipients: recipients,
		generator:  generator,
		sender:     sender,
		tracking:   tracking,
		metrics:    m,
		logger:     logger.With("component", "campaign"),
	}
}

// CreateInput holds the fields needed to create a campaign
type CreateInput struct {
	CompanyName    string   `json:"company_name"`
	ProductName    string   `json:"product_name"`
	OfferDetails   string   `json:"offer_details"`
	CampaignTypes  []string `json:"campaign_type"`
	TargetAudience string   `json:"target_audience"`
}

// Create generates two email variations and persists the campaign with
// them. Generation failures fall back to static variations rather than
// failing the create.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Campaign, []models.Variation, error) {
	if input.CompanyName == "" || input.ProductName == "" || input.OfferDetails == "" || len(input.CampaignTypes) == 0 {
		return nil, nil, ErrMissingFields
	}

	campaignType := strings.Join(input.CampaignTypes, ", ")
	drafts := s.generateVariations(ctx, input, campaignType)

	nameType := "Multi-Type"
	if len(input.CampaignTypes) == 1 {
		nameType = titleCase(input.CampaignTypes[0])
	}

	c := &models.Campaign{
		Name:           fmt.Sprintf("%s - %s", input.CompanyName, nameType),
		CompanyName:    input.CompanyName,
		ProductName:    input.ProductName,
		OfferDetails:   input.OfferDetails,
		CampaignType:   campaignType,
		TargetAudience: input.TargetAudience,
	}
	if err := s.campaigns.Create(c); err != nil {
		return nil, nil, err
	}

	variations := make([]models.Variation, 0, len(drafts))
	for i, draft := range drafts {
		v := models.Variation{
			CampaignID: c.ID,
			Name:       fmt.Sprintf("Variation_%c", 'A'+i),
			Subject:    draft.Subject,
			Body:       draft.Body,
		}
		if err := s.campaigns.AddVariation(&v); err != nil {
			return nil, nil, err
		}
		variations = append(variations, v)
	}

	s.logger.Info("campaign created", "campaign_id", c.ID, "variations", len(variations))
	return c, variations, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// generateVariations asks the generator for two drafts, falling back to
// static variations when the gateway errors or its output is unusable.
func (s *Service) generateVariations(ctx context.Context, input CreateInput, campaignType string) []genai.DraftVariation {
	prompt := genai.BuildPrompt(input.CompanyName, input.ProductName, input.OfferDetails, campaignType, input.TargetAudience)

	text, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("variation generation failed, using fallback", "error", err)
		return genai.FallbackVariations(input.CompanyName, input.ProductName, input.OfferDetails)
	}

	drafts := genai.ParseVariations(text)
	if len(drafts) < 2 {
		s.logger.Warn("generated output unusable, using fallback", "parsed", len(drafts))
		return genai.FallbackVariations(input.CompanyName, input.ProductName, input.OfferDetails)
	}
	return drafts
}

// UploadRecipients imports a CSV of recipients, assigning each a
// variation by deterministic hash of the email.
func (s *Service) UploadRecipients(campaignID string, csvData io.Reader) (*models.RecipientImportResult, error) {
	c, err := s.campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}

	variations, err := s.campaigns.GetVariations(campaignID)
	if err != nil {
		return nil, err
	}
	if len(variations) == 0 {
		return nil, ErrNoVariations
	}

	names := make([]string, len(variations))
	for i, v := range variations {
		names[i] = v.Name
	}

	result, err := s.recipients.ImportCSV(campaignID, csvData, func(email string) string {
		return abtest.Assign(email, names)
	})
	if err != nil {
		return nil, err
	}

	if err := s.campaigns.UpdateTotalRecipients(campaignID, result.Imported); err != nil {
		return nil, err
	}

	s.logger.Info("recipients uploaded", "campaign_id", campaignID, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// SendReport summarizes a campaign send
type SendReport struct {
	SentCount       int      `json:"sent_count"`
	TotalRecipients int      `json:"total_recipients"`
	Errors          []string `json:"errors,omitempty"`
}

// Send delivers the campaign to all pending recipients. Each recipient
// gets their assigned variation, personalized and instrumented with
// tracking. Per-recipient failures are recorded and do not stop the
// rest; the campaign transitions draft -> sent once the loop finishes.
func (s *Service) Send(ctx context.Context, campaignID string) (*SendReport, error) {
	c, err := s.campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}

	variations, err := s.campaigns.GetVariations(campaignID)
	if err != nil {
		return nil, err
	}
	if len(variations) == 0 {
		return nil, ErrNoVariations
	}
	byName := make(map[string]models.Variation, len(variations))
	for _, v := range variations {
		byName[v.Name] = v
	}

	pending, err := s.recipients.ListPending(campaignID)
	if err != nil {
		return nil, err
	}

	report := &SendReport{TotalRecipients: len(pending)}

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := s.sendOne(ctx, rec, byName); err != nil {
			if len(report.Errors) < maxReportedErrors {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", rec.Email, err))
			}
			s.metrics.EmailsFailedTotal.WithLabelValues(rec.Variation).Inc()
			if err := s.recipients.MarkFailed(rec.ID); err != nil {
				s.logger.Error("failed to mark recipient failed", "recipient_id", rec.ID, "error", err)
			}
			continue
		}

		s.metrics.EmailsSentTotal.WithLabelValues(rec.Variation).Inc()
		if err := s.recipients.MarkSent(rec.ID, time.Now()); err != nil {
			s.logger.Error("failed to mark recipient sent", "recipient_id", rec.ID, "error", err)
			continue
		}
		report.SentCount++
	}

	if err := s.campaigns.UpdateStatus(campaignID, models.CampaignStatusSent); err != nil {
		return report, err
	}

	s.logger.Info("campaign sent",
		"campaign_id", campaignID,
		"sent", report.SentCount,
		"total", report.TotalRecipients,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (s *Service) sendOne(ctx context.Context, rec models.Recipient, byName map[string]models.Variation) error {
	v, ok := byName[rec.Variation]
	if !ok {
		return fmt.Errorf("assigned variation %q does not exist", rec.Variation)
	}

	body := mailer.Personalize(v.Body, rec.FirstName)
	html := mailer.BuildTrackedHTML(body, s.tracking, rec.TrackingToken)

	_, err := s.sender.Send(ctx, mailer.SendRequest{
		To:      rec.Email,
		Subject: v.Subject,
		HTML:    html,
		Text:    body,
	})
	return err
}

// Results holds a campaign's A/B funnel metrics
type Results struct {
	Campaign *models.Campaign                `json:"campaign"`
	Metrics  map[string]models.FunnelMetrics `json:"metrics"`
}

// GetResults computes per-variation funnel metrics from current state.
// No caching; a read may race an in-flight tracking write.
func (s *Service) GetResults(campaignID string) (*Results, error) {
	c, err := s.campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}

	counts, err := s.recipients.FunnelCounts(campaignID)
	if err != nil {
		return nil, err
	}

	result := &Results{
		Campaign: c,
		Metrics:  make(map[string]models.FunnelMetrics, len(counts)),
	}
	for name, count := range counts {
		result.Metrics[name] = abtest.Rates(count)
	}
	return result, nil
}

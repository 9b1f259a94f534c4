package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/splitmail/internal/campaign"
	"github.com/foxzi/splitmail/internal/models"
	"github.com/foxzi/splitmail/internal/schedule"
)

// Version is set by the main package at build time
var Version = "dev"

// maxUploadBytes bounds CSV uploads
const maxUploadBytes = 10 << 20

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// CampaignResponse is the response for campaign creation and lookup
type CampaignResponse struct {
	Campaign   *models.Campaign   `json:"campaign"`
	Variations []models.Variation `json:"variations,omitempty"`
}

// BatchSummary is a scheduled batch in API responses
type BatchSummary struct {
	ID         string    `json:"id"`
	Window     string    `json:"window"`
	Recipients int       `json:"recipients"`
	SendAt     time.Time `json:"send_at"`
	Status     string    `json:"status"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
}

// ScheduleResponse is the response for POST /api/v1/schedule
type ScheduleResponse struct {
	Scheduled []BatchSummary `json:"scheduled"`
	Skipped   int            `json:"skipped"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleCreateCampaign handles POST /api/v1/campaigns
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, variations, err := s.campaigns.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, campaign.ErrMissingFields) {
			s.sendError(w, http.StatusBadRequest, "company_name, product_name, offer_details and campaign_type are required")
			return
		}
		s.logger.Error("failed to create campaign", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	s.sendJSON(w, http.StatusCreated, CampaignResponse{Campaign: c, Variations: variations})
}

// handleListCampaigns handles GET /api/v1/campaigns
func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	filter := models.CampaignListFilter{Status: r.URL.Query().Get("status")}

	campaigns, err := s.campRepo.List(filter)
	if err != nil {
		s.logger.Error("failed to list campaigns", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

// handleGetCampaign handles GET /api/v1/campaigns/{id}
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.campRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get campaign", "campaign_id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get campaign")
		return
	}
	if c == nil {
		s.sendError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	variations, err := s.campRepo.GetVariations(id)
	if err != nil {
		s.logger.Error("failed to get variations", "campaign_id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get campaign")
		return
	}

	s.sendJSON(w, http.StatusOK, CampaignResponse{Campaign: c, Variations: variations})
}

// handleGetVariations handles GET /api/v1/campaigns/{id}/variations
func (s *Server) handleGetVariations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.campRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get campaign", "campaign_id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get variations")
		return
	}
	if c == nil {
		s.sendError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	variations, err := s.campRepo.GetVariations(id)
	if err != nil {
		s.logger.Error("failed to get variations", "campaign_id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get variations")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]any{"variations": variations})
}

// handleGetResults handles GET /api/v1/campaigns/{id}/results
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	results, err := s.campaigns.GetResults(id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to get results", "campaign_id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get results")
		return
	}

	s.sendJSON(w, http.StatusOK, results)
}

// handleUploadRecipients handles POST /api/v1/campaigns/{id}/recipients.
// The request body is raw CSV with an email column; first_name and
// last_name columns are optional.
func (s *Server) handleUploadRecipients(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)

	result, err := s.campaigns.UploadRecipients(id, body)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrNotFound):
			s.sendError(w, http.StatusNotFound, "Campaign not found")
		case errors.Is(err, campaign.ErrNoVariations):
			s.sendError(w, http.StatusBadRequest, "Campaign has no variations")
		default:
			s.logger.Error("failed to upload recipients", "campaign_id", id, "error", err)
			s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Failed to import CSV: %v", err))
		}
		return
	}

	s.sendJSON(w, http.StatusOK, result)
}

// handleSendCampaign handles POST /api/v1/campaigns/{id}/send
func (s *Server) handleSendCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := s.campaigns.Send(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrNotFound):
			s.sendError(w, http.StatusNotFound, "Campaign not found")
		case errors.Is(err, campaign.ErrNoVariations):
			s.sendError(w, http.StatusBadRequest, "Campaign has no variations")
		default:
			s.logger.Error("failed to send campaign", "campaign_id", id, "error", err)
			s.sendError(w, http.StatusInternalServerError, "Failed to send campaign")
		}
		return
	}

	s.sendJSON(w, http.StatusOK, report)
}

// handleSchedule handles POST /api/v1/schedule. The request is
// multipart/form-data with a "file" CSV of email,opentime rows and
// "subject" and "body" fields. Contacts are grouped into send windows,
// planned into batches and persisted; the worker dispatches each batch
// when its send time arrives.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	subject := r.FormValue("subject")
	body := r.FormValue("body")
	if subject == "" || body == "" {
		s.sendError(w, http.StatusBadRequest, "subject and body are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contacts, err := parseContacts(file)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse CSV: %v", err))
		return
	}
	if len(contacts) == 0 {
		s.sendError(w, http.StatusBadRequest, "no contacts in CSV")
		return
	}

	buckets := schedule.Classify(contacts, schedule.DefaultWindows())
	classified := 0
	for name, emails := range buckets {
		if name != schedule.UnknownWindow {
			classified += len(emails)
		}
	}

	batches := schedule.Plan(time.Now(), schedule.DefaultWindows(), buckets, subject, body)

	resp := ScheduleResponse{Skipped: len(contacts) - classified}
	for i := range batches {
		if err := s.store.Add(&batches[i]); err != nil {
			s.logger.Error("failed to persist batch", "window", batches[i].Window, "error", err)
			s.sendError(w, http.StatusInternalServerError, "Failed to schedule batches")
			return
		}
		s.metrics.BatchesScheduledTotal.Inc()
		resp.Scheduled = append(resp.Scheduled, batchSummary(&batches[i]))
	}

	s.logger.Info("batches scheduled", "batches", len(batches), "contacts", classified, "skipped", resp.Skipped)
	s.sendJSON(w, http.StatusOK, resp)
}

// handleListBatches handles GET /api/v1/schedule
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.List()
	if err != nil {
		s.logger.Error("failed to list batches", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}

	summaries := make([]BatchSummary, 0, len(batches))
	for _, b := range batches {
		summaries = append(summaries, batchSummary(b))
	}

	s.sendJSON(w, http.StatusOK, map[string]any{"batches": summaries})
}

func batchSummary(b *schedule.Batch) BatchSummary {
	return BatchSummary{
		ID:         b.ID,
		Window:     b.Window,
		Recipients: len(b.Emails),
		SendAt:     b.SendAt,
		Status:     string(b.Status),
		Sent:       b.Sent,
		Failed:     b.Failed,
	}
}

// parseContacts reads a CSV with an email column and an opentime (or
// open_time) column. Rows missing an email are dropped; opentime
// validation happens during classification.
func parseContacts(r io.Reader) ([]schedule.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	emailCol, timeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "email":
			emailCol = i
		case "opentime", "open_time":
			timeCol = i
		}
	}
	if emailCol == -1 {
		return nil, fmt.Errorf("email column not found")
	}
	if timeCol == -1 {
		return nil, fmt.Errorf("opentime column not found")
	}

	var contacts []schedule.Contact
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if emailCol >= len(record) || strings.TrimSpace(record[emailCol]) == "" {
			continue
		}
		contact := schedule.Contact{Email: strings.TrimSpace(record[emailCol])}
		if timeCol < len(record) {
			contact.OpenTime = strings.TrimSpace(record[timeCol])
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"commitcast/models"
	"commitcast/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses
// without leaking internals.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid state")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient funds")
	default:
		log.WithError(err).Error("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// commitmentResponse is the wire shape for a commitment
type commitmentResponse struct {
	ID                    int64      `json:"id"`
	PublicCode            string     `json:"public_code"`
	OwnerID               int64      `json:"owner_id"`
	Title                 string     `json:"title"`
	Description           *string    `json:"description"`
	Category              string     `json:"category"`
	Deadline              time.Time  `json:"deadline"`
	Visibility            string     `json:"visibility"`
	Status                string     `json:"status"`
	PredictionProbability *float64   `json:"prediction_probability"`
	PredictionExplanation *string    `json:"prediction_explanation"`
	ConfidenceLabel       *string    `json:"confidence_label"`
	CompletionReport      *string    `json:"completion_report"`
	EvidenceURL           *string    `json:"evidence_url"`
	ResolvedAt            *time.Time `json:"resolved_at"`
	CreatedAt             time.Time  `json:"created_at"`
}

func toCommitmentResponse(c *models.Commitment) commitmentResponse {
	resp := commitmentResponse{
		ID:                    c.ID,
		PublicCode:            c.PublicCode,
		OwnerID:               c.OwnerID,
		Title:                 c.Title,
		Description:           c.Description,
		Category:              c.Category,
		Deadline:              c.Deadline,
		Visibility:            string(c.Visibility),
		Status:                string(c.Status),
		PredictionProbability: c.PredictionProbability,
		PredictionExplanation: c.PredictionExplanation,
		CompletionReport:      c.CompletionReport,
		EvidenceURL:           c.EvidenceURL,
		ResolvedAt:            c.ResolvedAt,
		CreatedAt:             c.CreatedAt,
	}
	if c.ConfidenceLabel != nil {
		label := string(*c.ConfidenceLabel)
		resp.ConfidenceLabel = &label
	}
	return resp
}

func toCommitmentResponses(commitments []*models.Commitment) []commitmentResponse {
	out := make([]commitmentResponse, 0, len(commitments))
	for _, c := range commitments {
		out = append(out, toCommitmentResponse(c))
	}
	return out
}

type betResponse struct {
	ID           int64     `json:"id"`
	CommitmentID int64     `json:"commitment_id"`
	BettorID     int64     `json:"bettor_id"`
	Direction    string    `json:"direction"`
	Amount       int64     `json:"amount"`
	Resolved     bool      `json:"resolved"`
	Payout       *int64    `json:"payout"`
	CreatedAt    time.Time `json:"created_at"`
}

func toBetResponse(b *models.Bet) betResponse {
	return betResponse{
		ID:           b.ID,
		CommitmentID: b.CommitmentID,
		BettorID:     b.BettorID,
		Direction:    string(b.Direction),
		Amount:       b.Amount,
		Resolved:     b.Resolved,
		Payout:       b.Payout,
		CreatedAt:    b.CreatedAt,
	}
}

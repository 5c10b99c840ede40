package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"commitcast/models"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// --- auth ---

type authRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type authResponse struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body authRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := s.users.Register(r.Context(), body.Email, body.Password, body.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := GenerateToken(s.jwtSecret, user.ID)
	if err != nil {
		log.WithError(err).Error("Failed to sign token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Token:       token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body authRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := s.users.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		// Authentication failures all look the same to the client.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := GenerateToken(s.jwtSecret, user.ID)
	if err != nil {
		log.WithError(err).Error("Failed to sign token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Token:       token,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"created_at":   user.CreatedAt,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.users.GetBalance(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.GetStats(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"display_name": stats.DisplayName,
		"email":        stats.Email,
		"completed":    stats.CompletedCount,
		"failed":       stats.FailedCount,
		"pending":      stats.PendingCount,
		"success_rate": stats.SuccessRate,
		"balance":      stats.Balance,
	})
}

// --- commitments ---

type createCommitmentRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Deadline    time.Time `json:"deadline"`
	Visibility  string    `json:"visibility"`
}

func (s *Server) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	var body createCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	commitment, err := s.commitments.Create(r.Context(), UserIDFromContext(r.Context()),
		body.Title, body.Description, body.Category, body.Deadline, models.Visibility(body.Visibility))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommitmentResponse(commitment))
}

func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	commitments, err := s.commitments.ListMine(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommitmentResponses(commitments))
}

func (s *Server) handleListPublic(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	commitments, err := s.commitments.ListPublic(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommitmentResponses(commitments))
}

func (s *Server) handleGetCommitment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	commitment, err := s.commitments.Get(r.Context(), id, UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommitmentResponse(commitment))
}

func (s *Server) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	commitment, err := s.commitments.GetByPublicCode(r.Context(), r.PathValue("code"), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommitmentResponse(commitment))
}

type completeCommitmentRequest struct {
	Completed        bool    `json:"completed"`
	CompletionReport *string `json:"completion_report"`
	EvidenceURL      *string `json:"evidence_url"`
}

func (s *Server) handleCompleteCommitment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	var body completeCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	commitment, err := s.commitments.Resolve(r.Context(), id, UserIDFromContext(r.Context()),
		body.Completed, body.CompletionReport, body.EvidenceURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommitmentResponse(commitment))
}

func (s *Server) handleDeleteCommitment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	if err := s.commitments.Delete(r.Context(), id, UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- bets ---

type placeBetRequest struct {
	Direction string `json:"direction"`
	Amount    int64  `json:"amount"`
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	var body placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	bet, err := s.bets.Place(r.Context(), id, UserIDFromContext(r.Context()),
		models.BetDirection(body.Direction), body.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBetResponse(bet))
}

func (s *Server) handleCancelBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid bet id")
		return
	}

	if err := s.bets.Cancel(r.Context(), id, UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListBets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	// Visibility is enforced by the commitment lookup.
	if _, err := s.commitments.Get(r.Context(), id, UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}

	bets, err := s.bets.ListForCommitment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]betResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

// --- AI refinement ---

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	questions, err := s.advisor.GenerateQuestions(r.Context(), id, UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	var body struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := s.advisor.SubmitAnswer(r.Context(), id, UserIDFromContext(r.Context()), body.Answer); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	commitment, err := s.advisor.Predict(r.Context(), id, UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"probability":      commitment.PredictionProbability,
		"explanation":      commitment.PredictionExplanation,
		"confidence_label": commitment.ConfidenceLabel,
	})
}

func (s *Server) handleListContext(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	messages, err := s.advisor.ListContext(r.Context(), id, UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]any{
			"id":         m.ID,
			"role":       m.Role,
			"content":    m.Content,
			"created_at": m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCoaching(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	messages, err := s.advisor.ListCoaching(r.Context(), id, UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]any{
			"id":         m.ID,
			"role":       m.Role,
			"content":    m.Content,
			"created_at": m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- comments ---

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	comment, err := s.comments.Add(r.Context(), id, UserIDFromContext(r.Context()), body.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            comment.ID,
		"commitment_id": comment.CommitmentID,
		"user_id":       comment.UserID,
		"content":       comment.Content,
		"created_at":    comment.CreatedAt,
	})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	// Visibility is enforced by the commitment lookup.
	if _, err := s.commitments.Get(r.Context(), id, UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}

	comments, err := s.comments.List(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		out = append(out, map[string]any{
			"id":            c.ID,
			"commitment_id": c.CommitmentID,
			"user_id":       c.UserID,
			"content":       c.Content,
			"created_at":    c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := s.comments.Delete(r.Context(), id, UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

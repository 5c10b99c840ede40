package api

import (
	"net/http"

	"github.com/rs/cors"

	"commitcast/service"
)

// Server wires the HTTP surface onto the service layer
type Server struct {
	users       service.UserService
	commitments service.CommitmentService
	bets        service.BetService
	advisor     service.AdvisorService
	comments    service.CommentService
	jwtSecret   []byte
}

// NewServer creates a new API server
func NewServer(
	users service.UserService,
	commitments service.CommitmentService,
	bets service.BetService,
	advisor service.AdvisorService,
	comments service.CommentService,
	jwtSecret []byte,
) *Server {
	return &Server{
		users:       users,
		commitments: commitments,
		bets:        bets,
		advisor:     advisor,
		comments:    comments,
		jwtSecret:   jwtSecret,
	}
}

// Handler builds the routing table with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /me/balance", s.requireAuth(s.handleBalance))
	mux.HandleFunc("GET /me/stats", s.requireAuth(s.handleStats))

	mux.HandleFunc("POST /commitments", s.requireAuth(s.handleCreateCommitment))
	mux.HandleFunc("GET /commitments/my", s.requireAuth(s.handleListMine))
	mux.HandleFunc("GET /commitments/public", s.optionalAuth(s.handleListPublic))
	mux.HandleFunc("GET /commitments/{id}", s.optionalAuth(s.handleGetCommitment))
	mux.HandleFunc("GET /commitments/code/{code}", s.optionalAuth(s.handleGetByCode))
	mux.HandleFunc("POST /commitments/{id}/complete", s.requireAuth(s.handleCompleteCommitment))
	mux.HandleFunc("DELETE /commitments/{id}", s.requireAuth(s.handleDeleteCommitment))

	mux.HandleFunc("GET /commitments/{id}/bets", s.optionalAuth(s.handleListBets))
	mux.HandleFunc("POST /commitments/{id}/bets", s.requireAuth(s.handlePlaceBet))
	mux.HandleFunc("DELETE /bets/{id}", s.requireAuth(s.handleCancelBet))

	mux.HandleFunc("POST /commitments/{id}/ai/questions", s.requireAuth(s.handleGenerateQuestions))
	mux.HandleFunc("POST /commitments/{id}/ai/answer", s.requireAuth(s.handleSubmitAnswer))
	mux.HandleFunc("POST /commitments/{id}/ai/predict", s.requireAuth(s.handlePredict))
	mux.HandleFunc("GET /commitments/{id}/context", s.requireAuth(s.handleListContext))
	mux.HandleFunc("GET /commitments/{id}/coaching", s.requireAuth(s.handleListCoaching))

	mux.HandleFunc("GET /commitments/{id}/comments", s.optionalAuth(s.handleListComments))
	mux.HandleFunc("POST /commitments/{id}/comments", s.requireAuth(s.handleAddComment))
	mux.HandleFunc("DELETE /comments/{id}", s.requireAuth(s.handleDeleteComment))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return c.Handler(mux)
}

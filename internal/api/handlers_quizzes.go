package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/revyard/quizgest/internal/quizbank"
)

// bankOr404 returns the quiz bank, writing a 404 when persistence is
// disabled.
func (s *Server) bankOr404(w http.ResponseWriter) *quizbank.Store {
	bank := s.orchestrator.Bank()
	if bank == nil {
		jsonError(w, "quiz bank disabled", http.StatusNotFound)
		return nil
	}
	return bank
}

// handleListQuizzes lists stored quiz documents, newest first.
func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	bank := s.bankOr404(w)
	if bank == nil {
		return
	}

	quizzes, err := bank.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list quizzes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

// handleGetQuiz returns one stored quiz with its full record array.
func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	bank := s.bankOr404(w)
	if bank == nil {
		return
	}

	docID := chi.URLParam(r, "docID")
	entry, err := bank.Get(r.Context(), docID)
	if errors.Is(err, quizbank.ErrNotFound) {
		jsonError(w, "quiz not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load quiz: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteQuiz removes one stored quiz.
func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	bank := s.bankOr404(w)
	if bank == nil {
		return
	}

	docID := chi.URLParam(r, "docID")
	if err := bank.Delete(r.Context(), docID); err != nil {
		if errors.Is(err, quizbank.ErrNotFound) {
			jsonError(w, "quiz not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete quiz: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": docID})
}

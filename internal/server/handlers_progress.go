package server

import (
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Progress views take the user from currentUser; without an identity the
// service returns empty results without querying storage.

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	overview, err := s.progress.Overview(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	month := time.Now()
	if v := r.URL.Query().Get("month"); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
			return
		}
		month = t
	}
	history, err := s.progress.History(r.Context(), currentUser(r), month.Year(), month.Month())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.progress.PersonalRecords(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.progress.Streak(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}

func (s *Server) handleBodyWeight(w http.ResponseWriter, r *http.Request) {
	f, err := parseRecordFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bw, err := s.progress.BodyWeight(r.Context(), currentUser(r), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bw)
}

func (s *Server) handleNutrition(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = t
	}
	totals, err := s.progress.Nutrition(r.Context(), currentUser(r), day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleCreateNutrition(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var e models.NutritionEntry
	if !decodeJSON(w, r, &e) {
		return
	}
	if e.FoodName == "" || e.Calories < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "food_name and non-negative calories required"})
		return
	}
	if e.EntryDate.IsZero() {
		y, m, d := time.Now().Date()
		e.EntryDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	e.ID = uuid.Nil
	e.UserID = uid
	created, err := s.db.InsertNutritionEntry(r.Context(), e)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteNutrition(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteNutritionEntry(r.Context(), id, uid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	by, err := metrics.ParseLeaderboardKey(r.URL.Query().Get("by"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	entries, err := s.progress.Leaderboard(r.Context(), by)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

package server

import (
	"net/http"
	"strings"

	"github.com/claude/liftlog/internal/models"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.db.GetProfile(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var p models.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	p.UserID = uid
	if err := s.db.UpdateProfile(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleGetProfile(w, r)
}

func (s *Server) handleUpdateUnits(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		WeightUnit string `json:"weight_unit"`
		HeightUnit string `json:"height_unit"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	current, err := s.progress.Preferences(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	prefs, err := current.With(req.WeightUnit, req.HeightUnit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.db.UpdateUnits(r.Context(), uid, string(prefs.Mass), string(prefs.Length)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exercises, err := s.db.ListExercises(r.Context(), q.Get("muscle_group"), q.Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(exercises))
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	e, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	routines, err := s.db.ListRoutines(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(routines))
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var routine models.Routine
	if !decodeJSON(w, r, &routine) {
		return
	}
	routine.Name = strings.TrimSpace(routine.Name)
	if routine.Name == "" || len(routine.Exercises) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and at least one exercise required"})
		return
	}
	routine.UserID = uid
	created, err := s.db.InsertRoutine(r.Context(), routine)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

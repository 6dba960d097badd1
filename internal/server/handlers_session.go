package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// sessionView is a live session as returned by the API.
type sessionView struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Unit      metrics.MassUnit `json:"unit"`
	StartedAt time.Time        `json:"started_at"`
	session.Snapshot
}

func viewOf(live *session.Live) sessionView {
	return sessionView{
		ID:        live.ID,
		Name:      live.Name,
		Unit:      live.Unit,
		StartedAt: live.StartedAt,
		Snapshot:  live.Session().Snapshot(),
	}
}

// actionResult is the reply to a session operation. Applied is false when
// the target did not exist or the operation did not apply; the state is
// unchanged in that case.
type actionResult struct {
	Applied bool        `json:"applied"`
	Session sessionView `json:"session"`
}

// liveSession loads the {id} session of the caller or writes an error.
func (s *Server) liveSession(w http.ResponseWriter, r *http.Request) (*session.Live, bool) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return nil, false
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	live, err := s.sessions.Get(uid, id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return live, true
}

// setTarget reads the {exercise} and {set} path parameters.
func setTarget(w http.ResponseWriter, r *http.Request) (exerciseID, setID int, ok bool) {
	exerciseID, err := strconv.Atoi(chi.URLParam(r, "exercise"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise id"})
		return 0, 0, false
	}
	setID, err = strconv.Atoi(chi.URLParam(r, "set"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set id"})
		return 0, 0, false
	}
	return exerciseID, setID, true
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		RoutineID uuid.UUID `json:"routine_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	routine, err := s.db.GetRoutine(r.Context(), req.RoutineID, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	prefs, err := s.progress.Preferences(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.sessions.Start(uid, *routine, prefs.Mass)
	if err != nil {
		s.writeError(w, err)
		return
	}
	live, err := s.sessions.Get(uid, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(live))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	views := []sessionView{}
	for _, live := range s.sessions.List(uid) {
		views = append(views, viewOf(live))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(live))
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}
	exerciseID, setID, ok := setTarget(w, r)
	if !ok {
		return
	}
	applied := live.ToggleSetCompletion(exerciseID, setID)
	writeJSON(w, http.StatusOK, actionResult{Applied: applied, Session: viewOf(live)})
}

func (s *Server) handleAdjustSet(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}
	exerciseID, setID, ok := setTarget(w, r)
	if !ok {
		return
	}
	var req struct {
		Field session.Field `json:"field"`
		Delta int           `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	applied := live.AdjustSetValue(exerciseID, setID, req.Field, req.Delta)
	writeJSON(w, http.StatusOK, actionResult{Applied: applied, Session: viewOf(live)})
}

func (s *Server) handlePauseResume(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}
	live.PauseResume()
	writeJSON(w, http.StatusOK, actionResult{Applied: true, Session: viewOf(live)})
}

func (s *Server) handleExtendRest(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}
	seconds := s.cfg.ExtendSeconds
	if r.ContentLength != 0 {
		var req struct {
			Seconds int `json:"seconds"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Seconds != 0 {
			seconds = req.Seconds
		}
	}
	applied := live.ExtendRest(seconds)
	writeJSON(w, http.StatusOK, actionResult{Applied: applied, Session: viewOf(live)})
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}
	live.SkipRest()
	writeJSON(w, http.StatusOK, actionResult{Applied: true, Session: viewOf(live)})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	workout, err := s.sessions.Finish(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.sessions.Discard(uid, id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

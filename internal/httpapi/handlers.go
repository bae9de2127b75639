package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/DoyleJ11/draftboard/internal/coordinator"
	"github.com/DoyleJ11/draftboard/internal/details"
	"github.com/DoyleJ11/draftboard/internal/dragdrop"
	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/journal"
	"github.com/DoyleJ11/draftboard/internal/metrics"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Board is the coordinator surface the local API drives.
type Board interface {
	Snapshot() (coordinator.Board, error)
	Select(playerID int) error
	Draft(teamID int) error
	DraftPlayer(playerID, teamID int) error
	Remove(playerID, teamID int) error
	DragStart(playerID int) error
	DropOnTeam(teamID int) error
	DropOnAvailable() error
	SetView(v coordinator.SetView) (int, error)
	OpenTeam(teamID int) error
	UpdatePosition(playerID, teamID int, position string) error
	Watch(clientID string, outbox chan coordinator.Board)
	Unwatch(clientID string)
}

type Details interface {
	Request(playerID int) error
}

type Deps struct {
	Board   Board
	Details Details
	Journal journal.Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type server struct {
	Deps
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps board errors onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrTransactionPending), errors.Is(err, roster.ErrAlreadyPresent):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNoPlayerSelected):
		return http.StatusPreconditionFailed
	case errors.Is(err, engine.ErrNotConnected), errors.Is(err, conn.ErrNotConnected), errors.Is(err, coordinator.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, roster.ErrUnknownPlayer), errors.Is(err, roster.ErrUnknownTeam):
		return http.StatusNotFound
	case errors.Is(err, coordinator.ErrInvalidPosition), errors.Is(err, details.ErrInvalidPlayer), errors.Is(err, dragdrop.ErrNothingDragged):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return 0, false
	}
	return n, true
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *server) board(w http.ResponseWriter, r *http.Request) {
	s.writeBoard(w)
}

func (s *server) writeBoard(w http.ResponseWriter) {
	b, err := s.Board.Snapshot()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *server) listJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit"})
			return
		}
		limit = n
	}
	entries, err := s.Journal.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type playerTeam struct {
	PlayerID int `json:"player_id"`
	TeamID   int `json:"team_id"`
}

// reply answers an action with the board as it stands after it.
func (s *server) reply(w http.ResponseWriter, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeBoard(w)
}

func (s *server) selectPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerTeam
	if !decode(w, r, &req) {
		return
	}
	s.reply(w, s.Board.Select(req.PlayerID))
}

// draft uses the selected player unless the body names one.
func (s *server) draft(w http.ResponseWriter, r *http.Request) {
	var req playerTeam
	if !decode(w, r, &req) {
		return
	}
	if req.PlayerID == 0 {
		s.reply(w, s.Board.Draft(req.TeamID))
		return
	}
	s.reply(w, s.Board.DraftPlayer(req.PlayerID, req.TeamID))
}

func (s *server) remove(w http.ResponseWriter, r *http.Request) {
	var req playerTeam
	if !decode(w, r, &req) {
		return
	}
	s.reply(w, s.Board.Remove(req.PlayerID, req.TeamID))
}

func (s *server) drag(w http.ResponseWriter, r *http.Request) {
	var req playerTeam
	if !decode(w, r, &req) {
		return
	}
	s.reply(w, s.Board.DragStart(req.PlayerID))
}

type dropRequest struct {
	TeamID    int  `json:"team_id"`
	Available bool `json:"available"`
}

func (s *server) drop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Available {
		s.reply(w, s.Board.DropOnAvailable())
		return
	}
	s.reply(w, s.Board.DropOnTeam(req.TeamID))
}

type viewRequest struct {
	Query    *string `json:"query"`
	Position *string `json:"position"`
	Sort     *string `json:"sort"`
}

func (s *server) setView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := s.Board.SetView(coordinator.SetView{Query: req.Query, Position: req.Position, SortKey: req.Sort})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Visible int `json:"visible"`
	}{Visible: n})
}

func (s *server) openTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "teamID")
	if !ok {
		return
	}
	s.reply(w, s.Board.OpenTeam(id))
}

func (s *server) playerDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "playerID")
	if !ok {
		return
	}
	if s.Details == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "player details unavailable"})
		return
	}
	if err := s.Details.Request(id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type positionRequest struct {
	TeamID   int    `json:"team_id"`
	Position string `json:"position"`
}

func (s *server) updatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "playerID")
	if !ok {
		return
	}
	var req positionRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.Board.UpdatePosition(id, req.TeamID, req.Position); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

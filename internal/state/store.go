package state

import (
	"strings"
	"sync"

	"github.com/DoyleJ11/draftboard/internal/conn"
)

// Session is fixed at startup from configuration.
type Session struct {
	LeagueName    string `json:"league_name"`
	CurrentUserID *int   `json:"current_user_id,omitempty"`
	Username      string `json:"username,omitempty"`
}

type SortKey string

const (
	SortNone       SortKey = "none"
	SortName       SortKey = "name"
	SortExperience SortKey = "experience"
	SortAttendance SortKey = "attendance"
	SortGoals      SortKey = "goals"
)

// ParseSortKey reports false for keys the sort engine does not know.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortName, SortExperience, SortAttendance, SortGoals:
		return k, true
	case "":
		return SortNone, true
	default:
		return "", false
	}
}

type ViewState struct {
	Query    string  `json:"query"`
	Position string  `json:"position"`
	SortKey  SortKey `json:"sort_key"`
}

// Store is the single client state record shared by every component.
type Store struct {
	mu         sync.Mutex
	session    Session
	connection conn.State
	selected   int
	activeTeam int
	view       ViewState
}

func NewStore(session Session) *Store {
	return &Store{session: session, view: ViewState{SortKey: SortNone}}
}

func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// IsLocalUser reports whether username names the person running this client.
func (s *Store) IsLocalUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Username != "" && strings.EqualFold(s.session.Username, username)
}

func (s *Store) SetConnection(c conn.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection = c
}

func (s *Store) Connection() conn.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connection
}

func (s *Store) Select(playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = playerID
}

func (s *Store) ClearSelection() { s.Select(0) }

func (s *Store) Selected() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != 0
}

func (s *Store) SetActiveTeam(teamID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTeam = teamID
}

func (s *Store) ActiveTeam() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTeam
}

func (s *Store) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Query = q
}

func (s *Store) SetPosition(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Position = p
}

func (s *Store) SetSortKey(k SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SortKey = k
}

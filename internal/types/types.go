package types

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Realtime event names as the draft server spells them.
const (
	EventJoinDraftRoom   = "join_draft_room"
	EventDraftPlayer     = "draft_player_enhanced"
	EventRemovePlayer    = "remove_player_enhanced"
	EventGetDetails      = "get_player_details"
	EventUpdatePosition  = "update_player_position"
	EventJoinedRoom      = "joined_room"
	EventPlayerDrafted   = "player_drafted_enhanced"
	EventPlayerRemoved   = "player_removed_enhanced"
	EventUserDrafting    = "user_drafting"
	EventError           = "error"
	EventDraftError      = "draft_error"
	EventRemoveError     = "remove_error"
	EventPlayerDetails   = "player_details"
	EventPositionUpdated = "player_position_updated"
)

// Envelope is the frame shape on the wire: {"event": "...", "payload": {...}}.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func Encode(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// Peek returns the event name and the raw payload of a frame without decoding it.
func Peek(frame []byte) (string, []byte) {
	res := gjson.GetManyBytes(frame, "event", "payload")
	var payload []byte
	if res[1].Exists() {
		payload = []byte(res[1].Raw)
	}
	return res[0].String(), payload
}

// League reads league_name (or league) from a payload; empty if absent.
func League(payload []byte) string {
	if v := gjson.GetBytes(payload, "league_name"); v.Exists() {
		return v.String()
	}
	return gjson.GetBytes(payload, "league").String()
}

// Message reads the human readable message of an error payload.
func Message(payload []byte) string {
	for _, key := range []string{"message", "error", "msg"} {
		if v := gjson.GetBytes(payload, key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

type Player struct {
	ID                      int     `json:"id"`
	Name                    string  `json:"name"`
	ProfilePictureURL       string  `json:"profile_picture_url,omitempty"`
	FavoritePosition        string  `json:"favorite_position,omitempty"`
	OtherPositions          string  `json:"other_positions,omitempty"`
	CareerGoals             int     `json:"career_goals"`
	CareerAssists           int     `json:"career_assists"`
	CareerYellowCards       int     `json:"career_yellow_cards"`
	CareerRedCards          int     `json:"career_red_cards"`
	SeasonGoals             int     `json:"season_goals,omitempty"`
	SeasonAssists           int     `json:"season_assists,omitempty"`
	LeagueExperienceSeasons int     `json:"league_experience_seasons"`
	AttendanceEstimate      float64 `json:"attendance_estimate"`
	ExperienceLevel         string  `json:"experience_level,omitempty"`
	CurrentPosition         string  `json:"current_position,omitempty"`
}

// Outgoing payloads.

type JoinRoom struct {
	LeagueName string `json:"league_name"`
}

type DraftPlayer struct {
	PlayerID   int    `json:"player_id"`
	TeamID     int    `json:"team_id"`
	LeagueName string `json:"league_name"`
	PlayerName string `json:"player_name,omitempty"`
	Position   string `json:"position,omitempty"`
}

type RemovePlayer struct {
	PlayerID   int    `json:"player_id"`
	TeamID     int    `json:"team_id"`
	LeagueName string `json:"league_name"`
}

type DetailsRequest struct {
	PlayerID int `json:"player_id"`
}

type UpdatePosition struct {
	PlayerID   int    `json:"player_id"`
	TeamID     int    `json:"team_id"`
	Position   string `json:"position"`
	LeagueName string `json:"league_name"`
}

// Incoming payloads.

type JoinedRoom struct {
	Room   string `json:"room"`
	League string `json:"league"`
}

// PlayerMoved is the body of both player_drafted_enhanced and player_removed_enhanced.
type PlayerMoved struct {
	Success    bool   `json:"success"`
	Player     Player `json:"player"`
	TeamID     int    `json:"team_id"`
	TeamName   string `json:"team_name"`
	LeagueName string `json:"league_name"`
	Position   string `json:"position,omitempty"`
}

type UserDrafting struct {
	Username   string  `json:"username"`
	PlayerName string  `json:"player_name"`
	TeamName   *string `json:"team_name"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type PlayerDetails struct {
	Player Player `json:"player"`
}

type PositionUpdated struct {
	Player     Player `json:"player"`
	TeamID     int    `json:"team_id"`
	TeamName   string `json:"team_name"`
	Position   string `json:"position"`
	LeagueName string `json:"league_name"`
}

// Positions accepted by update_player_position.
var Positions = []string{"gk", "lb", "cb", "rb", "lwb", "rwb", "cdm", "cm", "cam", "lw", "rw", "st", "bench"}

func ValidPosition(p string) bool {
	for _, v := range Positions {
		if v == p {
			return true
		}
	}
	return false
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/draftboard/internal/coordinator"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// streamMessage is what the board stream sends: a snapshot, or the error of a client command.
type streamMessage struct {
	Type  string             `json:"type"`
	Board *coordinator.Board `json:"board,omitempty"`
	Error string             `json:"error,omitempty"`
}

// streamCommand is a board action sent over the stream.
type streamCommand struct {
	Type     string  `json:"type"`
	PlayerID int     `json:"player_id"`
	TeamID   int     `json:"team_id"`
	Query    *string `json:"query"`
	Position *string `json:"position"`
	Sort     *string `json:"sort"`
}

// stream pushes board snapshots over a websocket and accepts board actions from the same socket.
func (s *server) stream(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "bye")

	out := make(chan coordinator.Board, 8)
	clientID := uuid.NewString()
	s.Board.Watch(clientID, out)
	defer s.Board.Unwatch(clientID)

	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	writes := make(chan streamMessage, 8)
	go func() {
		defer writeCancel()
		write := func(m streamMessage) bool {
			payload, _ := json.Marshal(m)
			ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
			defer cancel()
			return c.Write(ctx, websocket.MessageText, payload) == nil
		}
		for {
			select {
			case b, ok := <-out:
				if !ok {
					// Dropped as a slow watcher.
					c.Close(websocket.StatusPolicyViolation, "too slow")
					return
				}
				if !write(streamMessage{Type: "board", Board: &b}) {
					return
				}
			case m := <-writes:
				if !write(m) {
					return
				}
			case <-writeCtx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := c.Read(r.Context())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				s.Logger.Debug("board stream closed", zap.String("client", clientID), zap.Error(err))
			}
			return
		}

		var cmd streamCommand
		msg := streamMessage{Type: "error"}
		if err := json.Unmarshal(data, &cmd); err != nil {
			msg.Error = "bad json"
		} else if err := s.apply(cmd); err != nil {
			msg.Error = err.Error()
		} else {
			continue
		}
		select {
		case writes <- msg:
		case <-writeCtx.Done():
			return
		}
	}
}

var errUnknownCommand = errors.New("unknown command")

func (s *server) apply(cmd streamCommand) error {
	switch cmd.Type {
	case "select":
		return s.Board.Select(cmd.PlayerID)
	case "draft":
		if cmd.PlayerID == 0 {
			return s.Board.Draft(cmd.TeamID)
		}
		return s.Board.DraftPlayer(cmd.PlayerID, cmd.TeamID)
	case "remove":
		return s.Board.Remove(cmd.PlayerID, cmd.TeamID)
	case "drag":
		return s.Board.DragStart(cmd.PlayerID)
	case "drop":
		return s.Board.DropOnTeam(cmd.TeamID)
	case "drop_available":
		return s.Board.DropOnAvailable()
	case "view":
		_, err := s.Board.SetView(coordinator.SetView{Query: cmd.Query, Position: cmd.Position, SortKey: cmd.Sort})
		return err
	case "open_team":
		return s.Board.OpenTeam(cmd.TeamID)
	default:
		return errUnknownCommand
	}
}

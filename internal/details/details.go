// Package details shows the view-only player profile modal.
package details

import (
	"encoding/json"
	"errors"

	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ui"
	"go.uber.org/zap"
)

const ModalID = "playerProfileModal"

var ErrInvalidPlayer = errors.New("invalid player id")

// Channel is the part of the connection manager the widget needs.
type Channel interface {
	On(event string, h conn.Handler)
	Emit(event string, payload any) error
}

type Widget struct {
	ch     Channel
	modal  ui.Modal
	logger *zap.Logger
}

// New registers the player_details handler on ch. ch is normally the manager the board also uses.
func New(ch Channel, modal ui.Modal, logger *zap.Logger) *Widget {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Widget{ch: ch, modal: modal, logger: logger.Named("details")}
	ch.On(types.EventPlayerDetails, w.onDetails)
	return w
}

// Request asks the server for a player's full profile.
func (w *Widget) Request(playerID int) error {
	if playerID <= 0 {
		return ErrInvalidPlayer
	}
	return w.ch.Emit(types.EventGetDetails, types.DetailsRequest{PlayerID: playerID})
}

func (w *Widget) onDetails(payload []byte) {
	var msg types.PlayerDetails
	if err := json.Unmarshal(payload, &msg); err != nil {
		w.logger.Warn("bad player_details payload", zap.Error(err))
		return
	}
	if msg.Player.ID == 0 {
		w.logger.Debug("player_details without player")
		return
	}
	w.modal.Show(ModalID, msg.Player)
}

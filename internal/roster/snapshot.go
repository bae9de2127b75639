package roster

type CardView struct {
	PlayerID        int     `json:"player_id"`
	Name            string  `json:"name"`
	Position        string  `json:"position"`
	CurrentPosition string  `json:"current_position,omitempty"`
	Goals           int     `json:"goals"`
	Experience      int     `json:"experience"`
	Attendance      float64 `json:"attendance"`
	Visible         bool    `json:"visible"`
	Leaving         bool    `json:"leaving,omitempty"`
	Fit             Fit     `json:"fit,omitempty"`
}

type ContainerView struct {
	TeamID     int        `json:"team_id"`
	Name       string     `json:"name"`
	Badge      int        `json:"badge"`
	EmptyState bool       `json:"empty_state,omitempty"`
	Cards      []CardView `json:"cards"`
}

type Board struct {
	Available ContainerView   `json:"available"`
	Teams     []ContainerView `json:"teams"`
}

// Snapshot copies the board so it can leave the owning goroutine.
func (r *Roster) Snapshot() Board {
	b := Board{Available: viewOf(r.available), Teams: make([]ContainerView, 0, len(r.order))}
	for _, id := range r.order {
		b.Teams = append(b.Teams, viewOf(r.teams[id]))
	}
	return b
}

func viewOf(c *Container) ContainerView {
	v := ContainerView{
		TeamID:     c.TeamID,
		Name:       c.Name,
		Badge:      c.Badge,
		EmptyState: c.EmptyState,
		Cards:      make([]CardView, 0, len(c.Cards)),
	}
	for _, card := range c.Cards {
		v.Cards = append(v.Cards, CardView{
			PlayerID:        card.PlayerID,
			Name:            card.Player.Name,
			Position:        card.Player.FavoritePosition,
			CurrentPosition: card.Player.CurrentPosition,
			Goals:           card.Goals,
			Experience:      card.Experience,
			Attendance:      card.Attendance,
			Visible:         card.Visible(),
			Leaving:         card.Leaving,
			Fit:             card.Fit,
		})
	}
	return v
}

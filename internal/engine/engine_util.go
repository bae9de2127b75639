package engine

import "time"

func containsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Matches reports whether a server confirmation answers t. A draft must land on the requested team.
func (t *Transaction) Matches(kind Kind, playerID, teamID int) bool {
	if t == nil || t.Kind != kind || t.PlayerID != playerID {
		return false
	}
	return kind != KindDraft || t.TeamID == teamID
}

// Elapsed is how long the transaction has been in flight at now.
func (t Transaction) Elapsed(now time.Time) time.Duration {
	if t.IssuedAt.IsZero() || now.Before(t.IssuedAt) {
		return 0
	}
	return now.Sub(t.IssuedAt)
}

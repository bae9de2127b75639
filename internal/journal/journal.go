package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one settled or refused transaction.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	TxID       uuid.UUID `gorm:"type:uuid;index" json:"tx_id"`
	League     string    `gorm:"size:128;index" json:"league"`
	Kind       string    `gorm:"size:16" json:"kind"`
	PlayerID   int       `json:"player_id"`
	PlayerName string    `gorm:"size:255" json:"player_name"`
	TeamID     int       `json:"team_id"`
	TeamName   string    `gorm:"size:255" json:"team_name"`
	Outcome    string    `gorm:"size:32;index" json:"outcome"`
	Message    string    `gorm:"size:1024" json:"message,omitempty"`
	Via        string    `gorm:"size:16" json:"via"`
	IssuedAt   time.Time `json:"issued_at"`
	SettledAt  time.Time `json:"settled_at"`
	LatencyMS  int64     `json:"latency_ms"`
}

func (Entry) TableName() string { return "draftboard_transactions" }

type Store interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// MemoryStore keeps the last N entries.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 200
	}
	return &MemoryStore{max: max}
}

func (m *MemoryStore) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func entry(n int, outcome string) Entry {
	now := time.Date(2026, 5, 1, 10, 0, n, 0, time.UTC)
	return Entry{
		TxID:       uuid.New(),
		League:     "Premier",
		Kind:       "draft",
		PlayerID:   n,
		PlayerName: "Player",
		TeamID:     10,
		TeamName:   "Reds",
		Outcome:    outcome,
		Via:        "realtime",
		IssuedAt:   now.Add(-time.Second),
		SettledAt:  now,
		LatencyMS:  1000,
	}
}

func TestMemoryStore_RecentNewestFirst(t *testing.T) {
	m := NewMemoryStore(3)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, m.Record(ctx, entry(i, "confirmed")))
	}

	got, err := m.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{got[0].PlayerID, got[1].PlayerID, got[2].PlayerID})

	two, err := m.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=draft dbname=draft sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestGormStore_InsertStatement(t *testing.T) {
	db := dryRunDB(t)
	e := entry(1, "rejected")

	stmt := db.Create(&e).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, `INSERT INTO "draftboard_transactions"`)
	assert.Contains(t, sql, `"outcome"`)
	assert.Contains(t, stmt.Vars, "rejected")
}

func TestGormStore_RecentStatement(t *testing.T) {
	db := dryRunDB(t)
	var out []Entry
	stmt := db.Order("settled_at desc").Order("id desc").Limit(5).Find(&out).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, `FROM "draftboard_transactions"`)
	assert.Contains(t, sql, "ORDER BY settled_at desc,id desc")
	assert.Contains(t, sql, "LIMIT")
}

func TestGormStore_Postgres(t *testing.T) {
	dsn := os.Getenv("DRAFTBOARD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DRAFTBOARD_TEST_DATABASE_URL not set")
	}
	store, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	e := entry(int(time.Now().Unix()%100000), "timed_out")
	require.NoError(t, store.Record(ctx, e))

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
}

package index

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rocket457/identificar-e-formatar-queries/api"
)

func TestWriter_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	w, err := NewWriter(dbPath)
	require.NoError(t, err)

	runID, err := w.BeginRun("/src", api.Dialect{Language: "postgresql", TabWidth: 2})
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err)

	require.NoError(t, w.AddQuery(runID, Entry{
		Slot:         "findUser_1.sql",
		Function:     "findUser",
		Description:  "Finds a user.",
		SourcePath:   "Repo.java",
		Line:         6,
		Offset:       120,
		RawQuery:     `SELECT * " + "FROM t`,
		CleanedQuery: "SELECT * FROM t",
		Formatted:    "SELECT\n  *\nFROM\n  t",
		Diagnostics:  []string{"line 1: SELECT * (select-star)"},
	}))
	require.NoError(t, w.AddQuery(runID, Entry{
		Slot:         "Global_1.sql",
		Function:     "Global",
		CleanedQuery: "DROP TABLE t",
	}))
	require.NoError(t, w.Close())

	rows, err := LoadQueries(dbPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, runID, rows[0].RunID)
	assert.Equal(t, "findUser_1.sql", rows[0].Slot)
	assert.Equal(t, "Finds a user.", rows[0].Description)
	assert.Equal(t, 6, rows[0].Line)
	assert.Equal(t, 120, rows[0].Offset)
	assert.Equal(t, []string{"line 1: SELECT * (select-star)"}, rows[0].Diagnostics)

	assert.Equal(t, "Global_1.sql", rows[1].Slot)
	assert.Empty(t, rows[1].Description)
	assert.Nil(t, rows[1].Diagnostics)
	assert.Less(t, rows[0].Seq, rows[1].Seq)
}

func TestWriter_BatchesAcrossCommits(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	w, err := NewWriter(dbPath)
	require.NoError(t, err)
	w.batchSize = 3

	runID, err := w.BeginRun(".", api.Dialect{Language: "sql"})
	require.NoError(t, err)
	for i := range 7 {
		require.NoError(t, w.AddQuery(runID, Entry{
			Slot:         "q_" + string(rune('1'+i)) + ".sql",
			Function:     "q",
			CleanedQuery: "SELECT 1",
		}))
	}
	require.NoError(t, w.Close())

	var slots []string
	require.NoError(t, StreamQueries(dbPath, func(r Row) error {
		slots = append(slots, r.Slot)
		return nil
	}))
	assert.Equal(t, []string{"q_1.sql", "q_2.sql", "q_3.sql", "q_4.sql", "q_5.sql", "q_6.sql", "q_7.sql"}, slots)
}

func TestWriter_RunsAccumulate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	for range 2 {
		w, err := NewWriter(dbPath)
		require.NoError(t, err)
		runID, err := w.BeginRun(".", api.Dialect{Language: "sql"})
		require.NoError(t, err)
		require.NoError(t, w.AddQuery(runID, Entry{Slot: "a_1.sql", Function: "a", CleanedQuery: "SELECT 1"}))
		require.NoError(t, w.Close())
	}

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var runs int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs))
	assert.Equal(t, 2, runs)

	rows, err := LoadQueries(dbPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEqual(t, rows[0].RunID, rows[1].RunID)
}

func TestStreamQueries_StopsOnCallbackError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	w, err := NewWriter(dbPath)
	require.NoError(t, err)
	runID, err := w.BeginRun(".", api.Dialect{})
	require.NoError(t, err)
	require.NoError(t, w.AddQuery(runID, Entry{Slot: "a_1.sql", Function: "a", CleanedQuery: "SELECT 1"}))
	require.NoError(t, w.AddQuery(runID, Entry{Slot: "a_2.sql", Function: "a", CleanedQuery: "SELECT 2"}))
	require.NoError(t, w.Close())

	calls := 0
	err = StreamQueries(dbPath, func(Row) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

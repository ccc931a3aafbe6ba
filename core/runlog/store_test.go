package runlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		{RunID: "a", Timestamp: t0, Elapsed: 0, Behavior: "driving", Velocity: 20, Charge: 50},
		{RunID: "a", Timestamp: t0.Add(time.Minute), Elapsed: 60, Behavior: "driving", Velocity: 20, Charge: 49.5, Distance: 1200},
		{RunID: "a", Timestamp: t0.Add(2 * time.Minute), Elapsed: 120, Behavior: "chargestop", Charge: 49.6, Distance: 1200},
		{RunID: "b", Timestamp: t0, Behavior: "nochargestop", Charge: 10},
	}
}

func TestRecord_JSON(t *testing.T) {
	data, err := json.Marshal(sampleRecords()[1])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"run_id", "timestamp", "elapsed_s", "leg", "behavior", "velocity", "charge_ah", "solar_w", "demand_w", "distance_m", "exhausted"} {
		assert.Contains(t, m, k)
	}
}

func TestQueryMatch(t *testing.T) {
	r := sampleRecords()[1]
	assert.True(t, Query{}.Match(r))
	assert.True(t, Query{RunID: "a", Behavior: "driving"}.Match(r))
	assert.False(t, Query{RunID: "b"}.Match(r))
	assert.False(t, Query{Start: t0.Add(2 * time.Minute)}.Match(r))
	assert.False(t, Query{End: t0}.Match(r))
	assert.False(t, Query{Behavior: "chargestop"}.Match(r))
}

func storeContract(t *testing.T, store LogStore) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, store.Append(ctx, r))
	}

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 1200.0, all[1].Distance)
	assert.True(t, all[1].Timestamp.Equal(t0.Add(time.Minute)))

	runA, err := store.Query(ctx, Query{RunID: "a"})
	require.NoError(t, err)
	assert.Len(t, runA, 3)

	driving, err := store.Query(ctx, Query{RunID: "a", Behavior: "driving", Start: t0.Add(30 * time.Second)})
	require.NoError(t, err)
	require.Len(t, driving, 1)
	assert.Equal(t, 60.0, driving[0].Elapsed)
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "run.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	storeContract(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	storeContract(t, store)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "run.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	storeContract(t, store)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := Record{RunID: "big", Timestamp: t0}
	// ~1.2 MB of records forces at least one rotation at 1 MB.
	pad := make([]byte, 1024)
	for i := range pad {
		pad[i] = 'x'
	}
	rec.Behavior = string(pad)
	for i := 0; i < 1200; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "run-*.jsonl"))
	assert.NotEmpty(t, backups)

	out, err := store.Query(context.Background(), Query{RunID: "big"})
	require.NoError(t, err)
	assert.Len(t, out, 1200)
}

func TestAppendCancelled(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "run.jsonl"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Append(ctx, Record{}), context.Canceled)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(Config{Backend: BackendJSONL, Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(Config{Backend: BackendSQLite, Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(Config{Backend: BackendRotating, Path: filepath.Join(dir, "r.jsonl"), MaxSizeMB: 1})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)

	_, err = Open(Config{Backend: BackendJSONL})
	assert.Error(t, err)
	_, err = Open(Config{Backend: "parquet", Path: "x"})
	assert.Error(t, err)
}

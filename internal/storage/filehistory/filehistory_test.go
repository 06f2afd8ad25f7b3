package filehistory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tofunori/farewatch/internal/storage"
)

func TestAppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")

	s, err := New(path)
	require.NoError(t, err)

	ctx := context.Background()
	e1 := storage.Entry{
		CheckedAt: time.Date(2025, 5, 29, 10, 0, 0, 0, time.UTC),
		Price:     decimal.RequireFromString("750.00"),
	}
	e2 := storage.Entry{
		CheckedAt: time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC),
		Price:     decimal.RequireFromString("740.50"),
	}
	require.NoError(t, s.Append(ctx, e1))
	require.NoError(t, s.Append(ctx, e2))
	s.Close()

	// A fresh instance sees everything the first one wrote.
	s2, err := New(path)
	require.NoError(t, err)
	entries, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, e1.CheckedAt, entries[0].CheckedAt)
	require.True(t, entries[0].Price.Equal(e1.Price))
	require.Equal(t, e2.CheckedAt, entries[1].CheckedAt)
	require.True(t, entries[1].Price.Equal(e2.Price))
}

func TestLoad_ChronologicalOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")

	s, err := New(path)
	require.NoError(t, err)

	ctx := context.Background()
	// Appended out of order on purpose.
	times := []time.Time{
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		require.NoError(t, s.Append(ctx, storage.Entry{
			CheckedAt: ts,
			Price:     decimal.NewFromInt(int64(700 + i)),
		}))
	}

	entries, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		require.True(t, entries[i-1].CheckedAt.Before(entries[i].CheckedAt))
	}
}

func TestNew_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "price_history.json")

	s, err := New(path)
	require.NoError(t, err)
	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestNew_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := New(path)
	require.NoError(t, err)
	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)

	// Appending over a corrupt file replaces it with valid history.
	e := storage.Entry{
		CheckedAt: time.Date(2025, 5, 29, 10, 0, 0, 0, time.UTC),
		Price:     decimal.RequireFromString("750.00"),
	}
	require.NoError(t, s.Append(context.Background(), e))

	s2, err := New(path)
	require.NoError(t, err)
	entries, err = s2.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSave_BareNumberFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), storage.Entry{
		CheckedAt: time.Date(2025, 5, 29, 10, 30, 0, 0, time.UTC),
		Price:     decimal.RequireFromString("750.25"),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Prices are bare JSON numbers keyed by timestamp, the format the
	// original deployments wrote.
	require.JSONEq(t, `{"2025-05-29 10:30:00": 750.25}`, string(data))
}

func TestLoad_SkipsMalformedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"2025-05-29 10:00:00": 750, "garbage": 1}`), 0o644))

	s, err := New(path)
	require.NoError(t, err)
	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Price.Equal(decimal.NewFromInt(750)))
}

func TestConcurrentAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")

	s, err := New(path)
	require.NoError(t, err)

	// The admin endpoint reads history while a cycle appends; run both
	// at once so the race detector can see any unguarded map access.
	ctx := context.Background()
	base := time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)
	const writes = 50

	var wg sync.WaitGroup
	wg.Add(2)
	appendErrs := make(chan error, writes)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			appendErrs <- s.Append(ctx, storage.Entry{
				CheckedAt: base.Add(time.Duration(i) * time.Minute),
				Price:     decimal.NewFromInt(int64(700 + i)),
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			_, _ = s.Load(ctx)
		}
	}()
	wg.Wait()
	close(appendErrs)

	for err := range appendErrs {
		require.NoError(t, err)
	}
	entries, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, writes)
}

func TestNew_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	s, err := New("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("data", "price_history.json"), s.Path())
}

// Package filehistory persists price history as a JSON file mapping
// check timestamps to prices, the same format older deployments used,
// so an existing data/price_history.json keeps working.
package filehistory

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/storage"
)

const timeKeyLayout = "2006-01-02 15:04:05"

type Storage struct {
	path string

	// Full mapping kept in memory; rewritten to disk on every append.
	// The admin /history endpoint loads from another goroutine while
	// a cycle appends, so the map is guarded.
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func New(path string) (*Storage, error) {
	if path == "" {
		path = filepath.Join("data", "price_history.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create history dir")
	}

	s := &Storage{path: path, prices: make(map[string]decimal.Decimal)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("read price history failed, starting empty", "path", path, "error", err.Error())
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.prices); err != nil {
		// Corrupt history degrades to empty rather than blocking startup.
		slog.Warn("parse price history failed, starting empty", "path", path, "error", err.Error())
		s.prices = make(map[string]decimal.Decimal)
	}
	return s, nil
}

func (s *Storage) Load(ctx context.Context) ([]storage.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.prices))
	for k := range s.prices {
		keys = append(keys, k)
	}
	// Timestamp keys sort lexicographically in chronological order.
	sort.Strings(keys)

	entries := make([]storage.Entry, 0, len(keys))
	for _, k := range keys {
		t, err := time.Parse(timeKeyLayout, k)
		if err != nil {
			slog.Warn("skipping malformed history key", "key", k)
			continue
		}
		entries = append(entries, storage.Entry{CheckedAt: t, Price: s.prices[k]})
	}
	return entries, nil
}

func (s *Storage) Append(ctx context.Context, e storage.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[e.CheckedAt.Format(timeKeyLayout)] = e.Price
	return s.save()
}

func (s *Storage) save() error {
	// Write prices as bare JSON numbers, matching the historical format.
	out := make(map[string]json.RawMessage, len(s.prices))
	for k, v := range s.prices {
		out[k] = json.RawMessage(v.String())
	}
	data, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "marshal price history")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write price history")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace price history")
	}
	return nil
}

func (s *Storage) Close() {}

func (s *Storage) Path() string { return s.path }

// Package memory keeps exported report tables in process, optionally
// mirroring each tab to a CSV file for local runs.
package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"schoolledger/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	dir    string
	tabs   map[string]sheets.Table
	titles []string
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: make(map[string]sheets.Table)}
}

// NewWithDir also writes every tab to dir/<title>.csv.
func NewWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	s := New()
	s.dir = dir
	return s, nil
}

// WriteReport stores the table under title, replacing an earlier tab with
// the same title.
func (s *Store) WriteReport(_ context.Context, title string, t sheets.Table) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("empty tab title")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[title]; !ok {
		s.titles = append(s.titles, title)
	}
	s.tabs[title] = t

	if s.dir == "" {
		return nil
	}
	return writeCSV(filepath.Join(s.dir, fileName(title)), t)
}

// Tab returns a stored table.
func (s *Store) Tab(title string) (sheets.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[title]
	return t, ok
}

// Titles lists tabs in the order they were first written.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.titles...)
}

func fileName(title string) string {
	return strings.ReplaceAll(title, " ", "_") + ".csv"
}

func writeCSV(path string, t sheets.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return f.Close()
}

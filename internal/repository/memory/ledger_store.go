package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository"
)

type projectState struct {
	wagonType string
	base      domain.InventorySnapshot
	baseSet   bool
	// entries holds every committed revision, superseded ones included.
	entries []ledgerRecord
}

type ledgerRecord struct {
	entry      domain.LedgerEntry
	superseded bool
}

// LedgerStore is an in-memory append-only production ledger.
type LedgerStore struct {
	mu       sync.RWMutex
	projects map[string]*projectState
	nextID   int64
}

// NewLedgerStore creates an empty in-memory ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{projects: make(map[string]*projectState), nextID: 1}
}

var _ repository.LedgerStore = (*LedgerStore)(nil)

func (s *LedgerStore) Append(ctx context.Context, entry *domain.LedgerEntry, replace bool) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := s.projects[entry.ProjectID]
	if project == nil {
		project = &projectState{}
		s.projects[entry.ProjectID] = project
	}

	revision := 1
	for i := range project.entries {
		record := &project.entries[i]
		if record.superseded || !sameDay(record.entry.Date, entry.Date) {
			continue
		}
		if !replace {
			return nil, fmt.Errorf("project %s on %s: %w",
				entry.ProjectID, entry.Date.Format("2006-01-02"), domain.ErrDuplicateEntry)
		}
		record.superseded = true
		revision = record.entry.Revision + 1
	}

	committed := *entry
	committed.ID = s.nextID
	committed.Revision = revision
	committed.CreatedAt = time.Now()
	committed.PartsProduced = cloneCounts(entry.PartsProduced)
	committed.StagesCompleted = cloneCounts(entry.StagesCompleted)
	s.nextID++

	project.entries = append(project.entries, ledgerRecord{entry: committed})
	return &committed, nil
}

func (s *LedgerStore) Entries(ctx context.Context, projectID string) ([]domain.LedgerEntry, error) {
	return s.entriesWhere(projectID, func(domain.LedgerEntry) bool { return true })
}

func (s *LedgerStore) EntriesInRange(ctx context.Context, projectID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	return s.entriesWhere(projectID, func(entry domain.LedgerEntry) bool {
		return !entry.Date.Before(from) && !entry.Date.After(to)
	})
}

func (s *LedgerStore) entriesWhere(projectID string, keep func(domain.LedgerEntry) bool) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project := s.projects[projectID]
	if project == nil {
		return []domain.LedgerEntry{}, nil
	}

	var entries []domain.LedgerEntry
	for _, record := range project.entries {
		if record.superseded || !keep(record.entry) {
			continue
		}
		entry := record.entry
		entry.PartsProduced = cloneCounts(entry.PartsProduced)
		entry.StagesCompleted = cloneCounts(entry.StagesCompleted)
		entries = append(entries, entry)
	}

	// Date order, same-date ties by commit sequence.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (s *LedgerStore) BaseSnapshot(ctx context.Context, projectID string) (domain.InventorySnapshot, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project := s.projects[projectID]
	if project == nil || !project.baseSet {
		return nil, "", fmt.Errorf("project %q: %w", projectID, domain.ErrNotFound)
	}
	return project.base.Clone(), project.wagonType, nil
}

func (s *LedgerStore) SetBaseSnapshot(ctx context.Context, projectID, wagonType string, snapshot domain.InventorySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := s.projects[projectID]
	if project == nil {
		project = &projectState{}
		s.projects[projectID] = project
	}
	project.wagonType = wagonType
	project.base = snapshot.Clone()
	project.baseSet = true
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

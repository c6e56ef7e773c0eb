package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/stoik/lure/internal/models"
)

// Memory is a bounded in-process Store used when no database is configured.
// The oldest records are dropped once capacity is reached.
type Memory struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]models.AnalysisRecord
	order    []uuid.UUID
	capacity int
}

// NewMemory creates a Memory store keeping at most capacity records
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Memory{
		records:  make(map[uuid.UUID]models.AnalysisRecord),
		capacity: capacity,
	}
}

func (m *Memory) Save(_ context.Context, rec models.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; exists {
		return nil
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)

	for len(m.order) > m.capacity {
		delete(m.records, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *Memory) List(_ context.Context, limit int) ([]models.AnalysisRecord, error) {
	m.mu.RLock()
	out := make([]models.AnalysisRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	// Newest first, same as the SQL store
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit = NormalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (models.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return models.AnalysisRecord{}, ErrNotFound
	}
	return rec, nil
}

// Package store persists per-user medication records. The memory store is
// the default; the Postgres store activates when DATABASE_URL is set.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

var (
	ErrNotFound = errors.New("medication record not found")
	ErrConflict = errors.New("medication record already exists")
)

var _ interfaces.MedicationStore = (*MemoryStore)(nil)

// MemoryStore keeps records in a map guarded by a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]entities.MedicationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]entities.MedicationRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, record *entities.MedicationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.ID.String()
	if _, exists := s.records[key]; exists {
		return ErrConflict
	}
	s.records[key] = *record
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID, id string) (*entities.MedicationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return nil, ErrNotFound
	}
	found := rec
	return &found, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]entities.MedicationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entities.MedicationRecord{}
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, record *entities.MedicationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.ID.String()
	existing, ok := s.records[key]
	if !ok || existing.UserID != record.UserID {
		return ErrNotFound
	}
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now().UTC()
	s.records[key] = *record
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

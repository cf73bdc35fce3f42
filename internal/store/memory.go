package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	txns   []models.StoredTransaction
	byRef  map[string]int // reference -> index in txns
	now    func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRef: make(map[string]int),
		now:   time.Now,
	}
}

func (s *MemoryStore) FindByReference(ctx context.Context, ref string) (*models.StoredTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byRef[ref]
	if !ok || ref == "" {
		return nil, ErrNotFound
	}
	txn := s.txns[idx]
	return &txn, nil
}

func (s *MemoryStore) Create(ctx context.Context, txn *models.StoredTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txn.ReferenceID != "" {
		if _, exists := s.byRef[txn.ReferenceID]; exists {
			return ErrDuplicateReference
		}
	}

	s.nextID++
	txn.ID = s.nextID
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = s.now().UTC()
	}

	s.txns = append(s.txns, *txn)
	if txn.ReferenceID != "" {
		s.byRef[txn.ReferenceID] = len(s.txns) - 1
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]models.StoredTransaction, error) {
	s.mu.RLock()
	out := make([]models.StoredTransaction, len(s.txns))
	copy(out, s.txns)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

package quietblock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepository mirrors the sqlx repository's semantics in memory, including
// the conditional insert.
type memRepository struct {
	mu     sync.Mutex
	blocks map[uuid.UUID]*QuietBlock

	listErr   error
	expireErr error
	// snapshotDelay widens the window between snapshot and insert
	snapshotDelay time.Duration
}

func newMemRepository() *memRepository {
	return &memRepository{blocks: make(map[uuid.UUID]*QuietBlock)}
}

func (m *memRepository) Create(ctx context.Context, b *QuietBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.blocks {
		if other.OwnerID == b.OwnerID && other.Active && other.Overlaps(b.Start, b.End) {
			c := *other
			return &OverlapError{Conflict: &c}
		}
	}
	b.Active = true
	cp := *b
	m.blocks[b.ID] = &cp
	return nil
}

func (m *memRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*QuietBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok || b.OwnerID != ownerID {
		return nil, ErrBlockNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*QuietBlock, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	var out []*QuietBlock
	for _, b := range m.blocks {
		if b.OwnerID != ownerID || (!includeInactive && !b.Active) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if m.snapshotDelay > 0 {
		time.Sleep(m.snapshotDelay)
	}
	return out, nil
}

func (m *memRepository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*QuietBlock, error) {
	return m.ListByOwner(ctx, ownerID, false)
}

func (m *memRepository) ExpireByOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) (int64, error) {
	if m.expireErr != nil {
		return 0, m.expireErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.blocks {
		if b.OwnerID == ownerID && b.Active && b.IsExpired(now) {
			b.Active = false
			n++
		}
	}
	return n, nil
}

func (m *memRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok || b.OwnerID != ownerID {
		return ErrBlockNotFound
	}
	delete(m.blocks, id)
	return nil
}

func (m *memRepository) ListSweepCandidates(ctx context.Context) ([]*QuietBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*QuietBlock
	for _, b := range m.blocks {
		if b.Active {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepository) Deactivate(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var flipped []uuid.UUID
	for _, id := range ids {
		if b, ok := m.blocks[id]; ok && b.Active {
			b.Active = false
			flipped = append(flipped, id)
		}
	}
	return flipped, nil
}

func (m *memRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok || b.ReminderSent {
		return false, nil
	}
	b.ReminderSent = true
	return true, nil
}

func (m *memRepository) activeCount(ownerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.blocks {
		if b.OwnerID == ownerID && b.Active {
			n++
		}
	}
	return n
}

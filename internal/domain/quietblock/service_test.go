package quietblock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func timePtr(t time.Time) *time.Time { return &t }

func newTestService(repo Repository) *Service {
	svc := NewService(repo, NewLocalLocker())
	svc.now = func() time.Time { return base }
	return svc
}

func TestServiceCreate_Validation(t *testing.T) {
	svc := newTestService(newMemRepository())
	owner := uuid.New()

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{name: "blank title", req: CreateRequest{Title: "   ", Start: timePtr(base), End: timePtr(base.Add(time.Hour))}, wantErr: ErrEmptyTitle},
		{name: "title too long", req: CreateRequest{Title: strings.Repeat("é", MaxTitleLength+1), Start: timePtr(base), End: timePtr(base.Add(time.Hour))}, wantErr: ErrTitleTooLong},
		{name: "end before start", req: CreateRequest{Title: "x", Start: timePtr(base), End: timePtr(base.Add(-time.Minute))}, wantErr: ErrInvalidRange},
		{name: "zero length", req: CreateRequest{Title: "x", Start: timePtr(base), End: timePtr(base)}, wantErr: ErrInvalidRange},
		{name: "missing end", req: CreateRequest{Title: "x", Start: timePtr(base)}, wantErr: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestServiceCreate_PersistsTrimmedBlock(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo)
	owner := uuid.New()

	loc := time.FixedZone("plus5", 5*3600)
	b, err := svc.Create(context.Background(), owner, &CreateRequest{
		Title: "  Deep work  ",
		Start: timePtr(base.In(loc)),
		End:   timePtr(base.Add(time.Hour).In(loc)),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Title != "Deep work" {
		t.Fatalf("expected trimmed title, got %q", b.Title)
	}
	if !b.Active || b.ReminderSent {
		t.Fatalf("expected active and not reminded, got %+v", b)
	}
	if b.Start.Location() != time.UTC || !b.Start.Equal(base) {
		t.Fatalf("expected start stored as UTC instant, got %v", b.Start)
	}

	stored, err := repo.GetByID(context.Background(), owner, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "Deep work" {
		t.Fatalf("unexpected stored block %+v", stored)
	}
}

func TestServiceCreate_BackToBackAndOverlap(t *testing.T) {
	svc := newTestService(newMemRepository())
	owner := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, owner, &CreateRequest{Title: "a", Start: timePtr(base), End: timePtr(base.Add(time.Hour))})
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	if _, err := svc.Create(ctx, owner, &CreateRequest{Title: "b", Start: timePtr(base.Add(time.Hour)), End: timePtr(base.Add(2 * time.Hour))}); err != nil {
		t.Fatalf("back to back must be admitted: %v", err)
	}

	_, err = svc.Create(ctx, owner, &CreateRequest{Title: "c", Start: timePtr(base), End: timePtr(base.Add(time.Minute))})
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected overlap, got %v", err)
	}
	if overlap.Conflict.ID != first.ID {
		t.Fatalf("expected conflict with %s, got %s", first.ID, overlap.Conflict.ID)
	}

	// other owners are unaffected
	if _, err := svc.Create(ctx, uuid.New(), &CreateRequest{Title: "d", Start: timePtr(base), End: timePtr(base.Add(time.Hour))}); err != nil {
		t.Fatalf("other owner must be admitted: %v", err)
	}
}

func TestServiceCreate_ConcurrentRequestsAdmitOne(t *testing.T) {
	repo := newMemRepository()
	repo.snapshotDelay = 5 * time.Millisecond
	svc := newTestService(repo)
	owner := uuid.New()

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := base.Add(time.Duration(i) * time.Minute)
			_, err := svc.Create(context.Background(), owner, &CreateRequest{Title: "x", Start: &start, End: timePtr(start.Add(time.Hour))})
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			} else if !errors.Is(err, ErrOverlap) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if admitted != 1 || repo.activeCount(owner) != 1 {
		t.Fatalf("expected exactly one admitted block, got %d (stored %d)", admitted, repo.activeCount(owner))
	}
}

func TestServiceList_ReconcilesExpired(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo)
	owner := uuid.New()
	ctx := context.Background()

	ended, _ := svc.Create(ctx, owner, &CreateRequest{Title: "old", Start: timePtr(base.Add(-2 * time.Hour)), End: timePtr(base.Add(-time.Hour))})
	upcoming, _ := svc.Create(ctx, owner, &CreateRequest{Title: "new", Start: timePtr(base.Add(time.Hour)), End: timePtr(base.Add(2 * time.Hour))})

	active, err := svc.List(ctx, owner, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].ID != upcoming.ID {
		t.Fatalf("expected only the upcoming block, got %+v", active)
	}

	all, err := svc.List(ctx, owner, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].ID != ended.ID || all[0].Active {
		t.Fatalf("expected ended block first and inactive, got %+v", all)
	}
}

func TestServiceList_ReconcileFailureStillLists(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo)
	owner := uuid.New()
	svc.Create(context.Background(), owner, &CreateRequest{Title: "x", Start: timePtr(base.Add(time.Hour)), End: timePtr(base.Add(2 * time.Hour))})

	repo.expireErr = errors.New("write failed")
	blocks, err := svc.List(context.Background(), owner, false)
	if err != nil {
		t.Fatalf("list must survive reconcile failure: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
}

func TestServiceDelete_OwnerOnly(t *testing.T) {
	svc := newTestService(newMemRepository())
	owner := uuid.New()
	ctx := context.Background()

	b, _ := svc.Create(ctx, owner, &CreateRequest{Title: "x", Start: timePtr(base), End: timePtr(base.Add(time.Hour))})

	if err := svc.Delete(ctx, uuid.New(), b.ID); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if err := svc.Delete(ctx, owner, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, owner, b.ID); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

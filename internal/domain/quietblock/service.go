package quietblock

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles quiet block business logic
type Service struct {
	repo   Repository
	locker OwnerLocker
	now    func() time.Time
}

// NewService creates quiet block service
func NewService(repo Repository, locker OwnerLocker) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Service{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// Create admits and persists a new block for ownerID.
// Rejections are ErrEmptyTitle, ErrTitleTooLong, ErrInvalidRange or an *OverlapError.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateRequest) (*QuietBlock, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if req.Start == nil || req.End == nil || !req.End.After(*req.Start) {
		return nil, ErrInvalidRange
	}
	start, end := req.Start.UTC(), req.End.UTC()

	unlock, err := s.locker.Lock(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := Admit(ownerID, start, end, existing); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	block := &QuietBlock{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Start:     start,
		End:       end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return nil, err
	}

	log.Info().
		Str("block_id", block.ID.String()).
		Str("owner_id", ownerID.String()).
		Time("start", start).
		Msg("quiet block created")

	return block, nil
}

// List returns the owner's blocks ordered by start. Ended blocks are expired
// first so the result never shows a finished block as active.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*QuietBlock, error) {
	if n, err := s.repo.ExpireByOwner(ctx, ownerID, s.now()); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("failed to reconcile expired quiet blocks")
	} else if n > 0 {
		log.Debug().Int64("expired", n).Str("owner_id", ownerID.String()).Msg("expired quiet blocks on read")
	}

	return s.repo.ListByOwner(ctx, ownerID, includeInactive)
}

// GetByID returns a single block owned by ownerID
func (s *Service) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*QuietBlock, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// Delete removes a block owned by ownerID
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	log.Info().
		Str("block_id", id.String()).
		Str("owner_id", ownerID.String()).
		Msg("quiet block deleted")
	return nil
}

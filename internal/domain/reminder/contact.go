package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/quietblocks/quietblocks-api/internal/domain/user"
)

// Contact is where a reminder is delivered
type Contact struct {
	Email string
	Name  string
}

// ContactResolver looks up an owner's contact
type ContactResolver interface {
	Resolve(ctx context.Context, ownerID uuid.UUID) (*Contact, error)
}

// ProfileReader is the part of the user repository the resolver needs
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.Profile, error)
}

// CachedContacts resolves contacts from profiles and keeps successful lookups
// for a short TTL, so one sweep does not hit the profile table once per block.
// Failures are never cached.
type CachedContacts struct {
	profiles ProfileReader
	cache    *expirable.LRU[uuid.UUID, Contact]
}

// NewCachedContacts creates contact resolver. ttl <= 0 disables caching.
func NewCachedContacts(profiles ProfileReader, size int, ttl time.Duration) *CachedContacts {
	c := &CachedContacts{profiles: profiles}
	if ttl > 0 {
		if size <= 0 {
			size = 1024
		}
		c.cache = expirable.NewLRU[uuid.UUID, Contact](size, nil, ttl)
	}
	return c
}

func (c *CachedContacts) Resolve(ctx context.Context, ownerID uuid.UUID) (*Contact, error) {
	if c.cache != nil {
		if contact, ok := c.cache.Get(ownerID); ok {
			return &contact, nil
		}
	}

	profile, err := c.profiles.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, ownerID)
		}
		return nil, fmt.Errorf("%w: %v", ErrContactNotFound, err)
	}
	if !profile.HasEmail() {
		return nil, fmt.Errorf("%w: %s", ErrMissingEmail, ownerID)
	}

	contact := Contact{Email: profile.Email, Name: profile.Name()}
	if c.cache != nil {
		c.cache.Add(ownerID, contact)
	}
	return &contact, nil
}

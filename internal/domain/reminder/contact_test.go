package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quietblocks/quietblocks-api/internal/domain/user"
)

type countingProfiles struct {
	profiles map[uuid.UUID]*user.Profile
	calls    int
}

func (c *countingProfiles) GetByID(ctx context.Context, id uuid.UUID) (*user.Profile, error) {
	c.calls++
	p, ok := c.profiles[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return p, nil
}

func TestCachedContacts_CachesHits(t *testing.T) {
	id := uuid.New()
	profiles := &countingProfiles{profiles: map[uuid.UUID]*user.Profile{
		id: {ID: id, Email: "ada@example.com", DisplayName: "Ada"},
	}}
	c := NewCachedContacts(profiles, 16, time.Minute)

	for i := 0; i < 3; i++ {
		contact, err := c.Resolve(context.Background(), id)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if contact.Email != "ada@example.com" || contact.Name != "Ada" {
			t.Fatalf("unexpected contact %+v", contact)
		}
	}
	if profiles.calls != 1 {
		t.Fatalf("expected one profile lookup, got %d", profiles.calls)
	}
}

func TestCachedContacts_Errors(t *testing.T) {
	noEmail := uuid.New()
	profiles := &countingProfiles{profiles: map[uuid.UUID]*user.Profile{
		noEmail: {ID: noEmail, Email: "  "},
	}}
	c := NewCachedContacts(profiles, 16, time.Minute)

	if _, err := c.Resolve(context.Background(), uuid.New()); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
	if _, err := c.Resolve(context.Background(), noEmail); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}

	// failures are not cached
	profiles.profiles[noEmail].Email = "later@example.com"
	contact, err := c.Resolve(context.Background(), noEmail)
	if err != nil || contact.Email != "later@example.com" {
		t.Fatalf("expected fresh lookup after fix, got %+v, %v", contact, err)
	}
	if contact.Name != "later" {
		t.Fatalf("expected name from email local part, got %q", contact.Name)
	}
}

func TestCachedContacts_NoTTLDisablesCache(t *testing.T) {
	id := uuid.New()
	profiles := &countingProfiles{profiles: map[uuid.UUID]*user.Profile{
		id: {ID: id, Email: "a@b.c"},
	}}
	c := NewCachedContacts(profiles, 16, 0)

	c.Resolve(context.Background(), id)
	c.Resolve(context.Background(), id)
	if profiles.calls != 2 {
		t.Fatalf("expected uncached lookups, got %d", profiles.calls)
	}
}

package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is the read-only view of an account owned by the account service
type Profile struct {
	ID          uuid.UUID `db:"id"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

// HasEmail returns true if the profile has a deliverable address
func (p *Profile) HasEmail() bool {
	return strings.TrimSpace(p.Email) != ""
}

// Name returns the display name, falling back to the local part of the email
func (p *Profile) Name() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	return "there"
}

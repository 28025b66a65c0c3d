package quietblock

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest for POST /quiet-blocks. Title rules apply after trimming and
// live in Service.Create.
type CreateRequest struct {
	Title string     `json:"title"`
	Start *time.Time `json:"start" validate:"required"`
	End   *time.Time `json:"end" validate:"required"`
}

// BlockResponse is the API view of a quiet block
type BlockResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Minutes      int       `json:"duration_minutes"`
	Active       bool      `json:"active"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

// ListResponse wraps a list of blocks
type ListResponse struct {
	Items []*BlockResponse `json:"items"`
	Total int              `json:"total"`
}

// BlockResponseFromEntity renders b with all instants in loc
func BlockResponseFromEntity(b *QuietBlock, loc *time.Location) *BlockResponse {
	if loc == nil {
		loc = time.UTC
	}
	return &BlockResponse{
		ID:           b.ID,
		Title:        b.Title,
		Start:        b.Start.In(loc).Format(time.RFC3339),
		End:          b.End.In(loc).Format(time.RFC3339),
		Minutes:      int(b.Duration() / time.Minute),
		Active:       b.Active,
		ReminderSent: b.ReminderSent,
		CreatedAt:    b.CreatedAt.In(loc).Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.In(loc).Format(time.RFC3339),
	}
}

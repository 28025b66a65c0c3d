package quietblock

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quietblocks/quietblocks-api/internal/middleware"
	"github.com/quietblocks/quietblocks-api/internal/pkg/errorhandler"
	"github.com/quietblocks/quietblocks-api/internal/pkg/response"
	"github.com/quietblocks/quietblocks-api/internal/pkg/validator"
)

// Handler handles quiet block HTTP requests
type Handler struct {
	service *Service
	loc     *time.Location
}

// NewHandler creates quiet block handler. Timestamps are rendered in loc.
func NewHandler(service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, loc: loc}
}

// Create handles POST /quiet-blocks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	ownerID := middleware.GetUserID(r.Context())
	block, err := h.service.Create(r.Context(), ownerID, &req)
	if err != nil {
		var overlap *OverlapError
		switch {
		case errors.Is(err, ErrEmptyTitle), errors.Is(err, ErrTitleTooLong):
			response.ValidationError(w, map[string]string{"title": ReasonCode(err)})
		case errors.Is(err, ErrInvalidRange):
			response.ValidationError(w, map[string]string{"end": ReasonCode(err)})
		case errors.As(err, &overlap):
			details := map[string]string{"reason": ReasonCode(err)}
			if overlap.Conflict != nil {
				details["conflict_id"] = overlap.Conflict.ID.String()
			}
			response.ErrorWithDetails(w, http.StatusConflict, "OVERLAP", "Quiet block overlaps an existing active block", details)
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create quiet block", err)
		}
		return
	}

	response.Created(w, BlockResponseFromEntity(block, h.loc))
}

// List handles GET /quiet-blocks
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	ownerID := middleware.GetUserID(r.Context())
	blocks, err := h.service.List(r.Context(), ownerID, includeInactive)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list quiet blocks", err)
		return
	}

	items := make([]*BlockResponse, len(blocks))
	for i, b := range blocks {
		items[i] = BlockResponseFromEntity(b, h.loc)
	}

	response.OK(w, ListResponse{Items: items, Total: len(items)})
}

// GetByID handles GET /quiet-blocks/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid quiet block ID")
		return
	}

	ownerID := middleware.GetUserID(r.Context())
	block, err := h.service.GetByID(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, ErrBlockNotFound) {
			response.NotFound(w, "Quiet block not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load quiet block", err)
		return
	}

	response.OK(w, BlockResponseFromEntity(block, h.loc))
}

// Delete handles DELETE /quiet-blocks/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid quiet block ID")
		return
	}

	ownerID := middleware.GetUserID(r.Context())
	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, ErrBlockNotFound) {
			response.NotFound(w, "Quiet block not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete quiet block", err)
		return
	}

	response.NoContent(w)
}

// Package handler provides HTTP handlers for the Flagship API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flagship/flagship/internal/api/models"
	"github.com/flagship/flagship/internal/api/response"
	"github.com/flagship/flagship/internal/flag"
)

// FlagsHandler handles feature flag endpoints.
type FlagsHandler struct {
	service *flag.Service
}

// NewFlagsHandler creates a new FlagsHandler.
func NewFlagsHandler(service *flag.Service) *FlagsHandler {
	return &FlagsHandler{service: service}
}

// ListFlags handles GET /v1/flags - list flags, optionally filtered by name.
func (h *FlagsHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	var nameFilter *string
	if name := r.URL.Query().Get("name"); name != "" {
		nameFilter = &name
	}

	flags, err := h.service.GetAllFlags(r.Context(), nameFilter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]models.Flag, 0, len(flags))
	for i := range flags {
		items = append(items, toAPIFlag(&flags[i]))
	}
	response.JSON(w, r, http.StatusOK, models.FlagList{Items: items})
}

// GetFlagValue handles GET /v1/flags/{flagName}/value - evaluate a flag by
// name. An expired flag evaluates to false regardless of its stored value.
func (h *FlagsHandler) GetFlagValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "flagName")

	enabled, err := h.service.IsEnabled(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.FlagValue{Name: name, Value: enabled})
}

// GetFlag handles GET /v1/flags/{flagID} - get a flag by ID.
func (h *FlagsHandler) GetFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")

	f, err := h.service.GetFlag(r.Context(), flagID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIFlag(f))
}

// CreateFlag handles POST /v1/flags - create a new flag.
func (h *FlagsHandler) CreateFlag(w http.ResponseWriter, r *http.Request) {
	var input models.FlagCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validateCreateInput(&input); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid flag", fieldErrors)
		return
	}

	var offset flag.ExpirationOffset
	if input.ExpiresIn != nil {
		offset = flag.ExpirationOffset{
			Unit:  flag.ExpirationUnit(input.ExpiresIn.Unit),
			Value: input.ExpiresIn.Value,
		}
	}

	f, err := h.service.CreateFlag(r.Context(), input.Name, input.Value, input.Desc, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/flags/%s", f.ID)
	response.Created(w, r, location, toAPIFlag(f))
}

// UpdateFlag handles PATCH /v1/flags/{flagID} - merge-patch an existing flag.
// Fields absent from the body leave the stored attributes untouched.
func (h *FlagsHandler) UpdateFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")

	var input models.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	f, err := h.service.UpdateFlag(r.Context(), flagID, flag.FlagUpdate{
		Name:  input.Name,
		Value: input.Value,
		Desc:  input.Desc,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIFlag(f))
}

// DeleteFlag handles DELETE /v1/flags/{flagID} - delete a flag by ID.
func (h *FlagsHandler) DeleteFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")

	deleted, err := h.service.DeleteFlag(r.Context(), flagID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !deleted {
		response.NotFound(w, r, "flag not found")
		return
	}

	response.NoContent(w, r)
}

// writeError maps service errors to problem responses: a missing flag is a
// client error, an unreachable backend a server one.
func (h *FlagsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, flag.ErrFlagNotFound):
		response.NotFound(w, r, "flag not found")
	case errors.Is(err, flag.ErrConnection):
		response.ServiceUnavailable(w, r, "storage backend unavailable")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func validateCreateInput(input *models.FlagCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	}

	if input.ExpiresIn != nil {
		offset := flag.ExpirationOffset{
			Unit:  flag.ExpirationUnit(input.ExpiresIn.Unit),
			Value: input.ExpiresIn.Value,
		}
		if !offset.Valid() {
			errs = append(errs, models.FieldError{
				Field:   "expiresIn",
				Message: "unit must be one of m, h, d, w and value must be positive",
			})
		}
	}

	return errs
}

func toAPIFlag(f *flag.Flag) models.Flag {
	var expiration *models.Timestamp
	if f.ExpirationDate != nil {
		ts := models.Timestamp(*f.ExpirationDate)
		expiration = &ts
	}
	return models.Flag{
		ID:             f.ID,
		Name:           f.Name,
		Value:          f.Value,
		Desc:           f.Desc,
		ExpirationDate: expiration,
		DateCreated:    models.Timestamp(f.DateCreated),
	}
}

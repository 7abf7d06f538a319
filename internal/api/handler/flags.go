package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/billgate/billgate/internal/api/models"
	"github.com/billgate/billgate/internal/api/response"
	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/gate"
	"github.com/billgate/billgate/internal/requirements"
)

// FlagsHandler handles feature flag administration endpoints.
type FlagsHandler struct {
	service  *flags.Service
	provider *requirements.Provider
	caches   []*gate.DecisionCache
}

// NewFlagsHandler creates a new FlagsHandler. caches lists the decision
// caches to purge on explicit invalidation.
func NewFlagsHandler(service *flags.Service, provider *requirements.Provider, caches ...*gate.DecisionCache) *FlagsHandler {
	return &FlagsHandler{
		service:  service,
		provider: provider,
		caches:   caches,
	}
}

// ListFlags handles GET /v1/admin/flags - list all feature flags.
func (h *FlagsHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	all := h.service.GetAllFlags()

	items := make([]models.FeatureFlag, 0, len(all))
	for _, f := range all {
		items = append(items, toAPIFlag(f))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	response.JSON(w, r, http.StatusOK, models.FeatureFlagList{Items: items})
}

// UpsertFlags handles PUT /v1/admin/flags - create or update feature flags.
func (h *FlagsHandler) UpsertFlags(w http.ResponseWriter, r *http.Request) {
	var input models.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Updates) == 0 {
		response.BadRequest(w, r, "updates must not be empty", nil)
		return
	}

	updates := make([]flags.Flag, 0, len(input.Updates))
	var fieldErrors []models.FieldError
	for i, u := range input.Updates {
		if u.Name == "" {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   indexedField(i, "name"),
				Message: "name is required",
			})
			continue
		}

		kind := flags.Kind(u.Kind)
		if kind == "" {
			kind = flags.KindBoolean
		}
		switch kind {
		case flags.KindBoolean, flags.KindPercentage, flags.KindSegment:
		default:
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   indexedField(i, "kind"),
				Message: "kind must be boolean, percentage, or segment",
			})
			continue
		}

		if u.Rollout < 0 || u.Rollout > 100 {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   indexedField(i, "rollout"),
				Message: "rollout must be between 0 and 100",
			})
			continue
		}

		updates = append(updates, flags.Flag{
			Name:     u.Name,
			Kind:     kind,
			Enabled:  u.Enabled,
			Rollout:  u.Rollout,
			Segments: u.Segments,
		})
	}

	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	if err := h.service.SetFlags(r.Context(), updates); err != nil {
		response.InternalError(w, r, "failed to persist flag updates")
		return
	}

	response.NoContent(w, r)
}

// DeleteFlag handles DELETE /v1/admin/flags/{key} - delete a feature flag.
// Deleting an unknown flag is a no-op and still returns 204.
func (h *FlagsHandler) DeleteFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		response.BadRequest(w, r, "flag key is required", nil)
		return
	}

	if err := h.service.DeleteFlag(r.Context(), key); err != nil {
		response.InternalError(w, r, "failed to delete flag")
		return
	}

	response.NoContent(w, r)
}

// InvalidateDecisions handles POST /v1/admin/flags/invalidate - purge all
// cached gate decisions so the next evaluation recomputes.
func (h *FlagsHandler) InvalidateDecisions(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.caches {
		c.Purge()
	}
	response.NoContent(w, r)
}

// InvalidateRequirements handles POST /v1/admin/requirements/invalidate -
// drop requirement snapshots so the next access reloads from the source.
func (h *FlagsHandler) InvalidateRequirements(w http.ResponseWriter, r *http.Request) {
	h.provider.Invalidate()
	response.NoContent(w, r)
}

func toAPIFlag(f flags.Flag) models.FeatureFlag {
	return models.FeatureFlag{
		Name:      f.Name,
		Kind:      string(f.Kind),
		Enabled:   f.Enabled,
		Rollout:   f.Rollout,
		Segments:  f.Segments,
		Version:   f.Version,
		UpdatedAt: f.UpdatedAt,
	}
}

func indexedField(i int, field string) string {
	return "updates[" + strconv.Itoa(i) + "]." + field
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

// AdHandler lists stored ads for a business
type AdHandler struct {
	storage interfaces.AdStorage
	logger  arbor.ILogger
}

// NewAdHandler creates a new ad handler
func NewAdHandler(storage interfaces.AdStorage, logger arbor.ILogger) *AdHandler {
	return &AdHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler handles GET /api/ads?business_id=&page=&pageSize=
func (h *AdHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" {
		WriteError(w, http.StatusBadRequest, "business_id is required")
		return
	}

	page, pageSize := GetPaginationParams(r)

	total, err := h.storage.CountAds(r.Context(), businessID)
	if err != nil {
		h.logger.Error().Err(err).Str("business_id", businessID).Msg("Failed to count ads")
		WriteError(w, http.StatusInternalServerError, "Failed to list ads")
		return
	}

	ads, err := h.storage.ListAds(r.Context(), interfaces.AdListOptions{
		BusinessID: businessID,
		Limit:      pageSize,
		Offset:     page * pageSize,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("business_id", businessID).Msg("Failed to list ads")
		WriteError(w, http.StatusInternalServerError, "Failed to list ads")
		return
	}
	if ads == nil {
		ads = []*models.Ad{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ads":        ads,
		"pagination": NewPaginationResponse(page, pageSize, total),
	})
}

package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viberoom/server/pkg/rest"
	"github.com/viberoom/server/pkg/ytcatalog"
)

func (c controller) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "missing query parameter q"})
		return
	}

	videos, err := c.catalog.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, ytcatalog.ErrMissingAPIKey) {
			c.logger.WarnContext(r.Context(), "catalog search is not configured")
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "catalog api key not configured"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to search catalog", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to search videos"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"items": videos})
}

func (c controller) lookupVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	video, err := c.catalog.Lookup(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, ytcatalog.ErrVideoNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "video not found"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to look up video", "video_id", videoID, "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to look up video"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"video": video})
}

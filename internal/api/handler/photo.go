package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/api/middleware"
	"github.com/geocycle/geocycle/internal/api/response"
	"github.com/geocycle/geocycle/internal/photo"
)

// maxPhotoWidth is the largest width the Places photo endpoint accepts.
const maxPhotoWidth = 1600

// PhotoFetcher fetches place photos.
type PhotoFetcher interface {
	Fetch(ctx context.Context, ref string, maxWidth int) (*photo.Photo, error)
	DefaultMaxWidth() int
}

// PhotoHandler handles GET /place-photo.
type PhotoHandler struct {
	photos PhotoFetcher
	logger zerolog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photos PhotoFetcher, logger zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{photos: photos, logger: logger}
}

// PlacePhoto streams the photo for ?ref= back with the upstream Content-Type.
func (h *PhotoHandler) PlacePhoto(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	ref := query.Get("ref")
	if ref == "" {
		response.BadRequest(w, r, photo.ErrMissingReference.Error(), nil)
		return
	}

	maxWidth := h.photos.DefaultMaxWidth()
	if raw := query.Get("maxwidth"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxPhotoWidth {
			response.BadRequest(w, r, "maxwidth must be an integer between 1 and 1600", nil)
			return
		}
		maxWidth = v
	}

	p, err := h.photos.Fetch(r.Context(), ref, maxWidth)
	if err != nil {
		h.logger.Warn().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Err(err).
			Msg("photo fetch failed")

		switch {
		case errors.Is(err, photo.ErrMissingReference):
			response.BadRequest(w, r, err.Error(), nil)
		case errors.Is(err, photo.ErrUpstreamStatus):
			response.BadGateway(w, r, photo.ErrUpstreamStatus.Error())
		default:
			response.InternalError(w, r, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.Body)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/media"
	"github.com/rkoshti/cliptube-be/internal/services"
)

// VideoHandler handles HTTP requests for the video catalog.
type VideoHandler struct {
	service  services.VideoServiceProvider
	issuer   *auth.TokenIssuer
	uploader media.Uploader
	tempDir  string
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(service services.VideoServiceProvider, issuer *auth.TokenIssuer, uploader media.Uploader, tempDir string) *VideoHandler {
	return &VideoHandler{service: service, issuer: issuer, uploader: uploader, tempDir: tempDir}
}

// Publish handles a multipart upload of a video file plus thumbnail.
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, apperr.Wrap(apperr.KindValidation, "invalid multipart form", err))
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		respondError(w, r, apperr.E(apperr.KindValidation, "title and description are required"))
		return
	}

	var duration float64
	if raw := r.FormValue("duration"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondError(w, r, apperr.E(apperr.KindValidation, "invalid duration"))
			return
		}
		duration = parsed
	}

	videoURL, err := stageAndUpload(r.Context(), r, "videoFile", h.tempDir, h.uploader)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if videoURL == "" {
		respondError(w, r, apperr.E(apperr.KindDependency, "video file required"))
		return
	}

	thumbnailURL, err := stageAndUpload(r.Context(), r, "thumbnail", h.tempDir, h.uploader)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if thumbnailURL == "" {
		respondError(w, r, apperr.E(apperr.KindDependency, "thumbnail required"))
		return
	}

	video, err := h.service.Publish(r.Context(), principal.ID, services.PublishInput{
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, video, "video published successfully")
}

// Get returns a single video. Authentication is optional; it only widens
// visibility to the owner's own unpublished videos.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	video, err := h.service.GetByID(r.Context(), id, viewerID(r, h.issuer))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, video, "video fetched")
}

// List returns a channel's published videos.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	channelID := strings.TrimSpace(r.URL.Query().Get("channelId"))
	if channelID == "" {
		respondError(w, r, apperr.E(apperr.KindValidation, "channelId is required"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	videos, err := h.service.ListByChannel(r.Context(), channelID, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, videos, "videos fetched")
}

// RecordView bumps the view counter for a published video.
func (h *VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.RecordView(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "view recorded")
}

// SetPublished toggles a video's visibility.
func (h *VideoHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	var payload struct {
		IsPublished *bool `json:"isPublished"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.IsPublished == nil {
		respondError(w, r, apperr.E(apperr.KindValidation, "isPublished is required"))
		return
	}

	video, err := h.service.SetPublished(r.Context(), chi.URLParam(r, "id"), principal.ID, *payload.IsPublished)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, video, "video visibility updated")
}

// Delete removes a video.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), principal.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "video deleted")
}

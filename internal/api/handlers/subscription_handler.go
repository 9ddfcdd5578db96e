package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/services"
)

// SubscriptionHandler handles HTTP requests for channel subscriptions.
type SubscriptionHandler struct {
	service services.SubscriptionServiceProvider
	issuer  *auth.TokenIssuer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(service services.SubscriptionServiceProvider, issuer *auth.TokenIssuer) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, issuer: issuer}
}

// Toggle subscribes the caller to a channel, or unsubscribes when already
// subscribed.
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	subscribed, err := h.service.Toggle(r.Context(), principal.ID, chi.URLParam(r, "channelId"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	respond(w, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// Get returns a channel's subscription counts. Authentication is optional;
// an authenticated caller additionally learns whether they follow the channel.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelId")

	counts, err := h.service.Counts(r.Context(), channelID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	data := map[string]any{
		"subscribers":  counts.Subscribers,
		"subscribedTo": counts.SubscribedTo,
	}
	if callerID := viewerID(r, h.issuer); callerID != "" {
		subscribed, err := h.service.IsSubscribed(r.Context(), callerID, channelID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		data["isSubscribed"] = subscribed
	}

	respond(w, http.StatusOK, data, "subscription info fetched")
}

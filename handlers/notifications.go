package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/eskulia/eskulia-api/auth"
	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/registryparser/entities"
	"github.com/goccy/go-json"
)

// SendNotificationRequest is the body of POST /notifications/send/
type SendNotificationRequest struct {
	Recipients       []int64        `json:"recipients" validate:"required,min=1,dive,gt=0"`
	NotificationType string         `json:"notification_type" validate:"required"`
	Content          map[string]any `json:"content" validate:"required"`
	AdditionalData   map[string]any `json:"additional_data"`
}

// SendNotificationResponse carries one result per active recipient token
type SendNotificationResponse struct {
	Success bool                      `json:"success"`
	Results []entities.DeliveryResult `json:"results"`
}

// TokenUpdateRequest is the body of POST /notifications/token/update/
type TokenUpdateRequest struct {
	FCMToken   string `json:"fcm_token" validate:"required,max=255"`
	DeviceType string `json:"device_type" validate:"required,oneof=android ios web"`
}

// TokenDeleteRequest is the body of POST /notifications/token/delete/
type TokenDeleteRequest struct {
	FCMToken string `json:"fcm_token"`
}

// decodeBody decodes a JSON request body. Unknown fields are accepted.
func (h *HTTPHandlerImpl) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// SendNotification renders a templated notification and pushes it to every
// active token of the listed recipients.
func (h *HTTPHandlerImpl) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req SendNotificationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.dispatcher == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Push notifications are not configured")
		return
	}

	if !slices.Contains(h.dispatcher.Types(), req.NotificationType) {
		h.RespondWithError(w, http.StatusBadRequest,
			"Invalid notification type. Available types: "+strings.Join(h.dispatcher.Types(), ", "))
		return
	}

	tokens, err := h.tokens.ActiveTokens(r.Context(), req.Recipients)
	if err != nil {
		h.respondInternal(w, r, "active_tokens", err)
		return
	}
	if len(tokens) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "No active FCM tokens found for specified recipients")
		return
	}

	results, err := h.dispatcher.Dispatch(r.Context(), entities.NotificationRequest{
		Type:           req.NotificationType,
		Content:        req.Content,
		AdditionalData: req.AdditionalData,
		Tokens:         tokens,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidType):
			h.RespondWithError(w, http.StatusBadRequest,
				"Invalid notification type. Available types: "+strings.Join(h.dispatcher.Types(), ", "))
		case errors.Is(err, common.ErrValidation):
			h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Error creating notification: %v", err))
		case errors.Is(err, common.ErrUnavailable):
			logging.Warn("Notification dropped, push provider not configured", "type", req.NotificationType)
			h.RespondWithError(w, http.StatusServiceUnavailable, "Push notifications are not configured")
		default:
			h.respondInternal(w, r, "dispatch", err)
		}
		return
	}

	h.RespondWithJSON(w, http.StatusOK, SendNotificationResponse{Success: true, Results: results})
}

// UpdateToken registers or reactivates a device token for the caller
func (h *HTTPHandlerImpl) UpdateToken(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
		return
	}

	var req TokenUpdateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokens.UpsertToken(r.Context(), ownerID, req.FCMToken, entities.Platform(req.DeviceType))
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondInternal(w, r, "upsert_token", err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, token)
}

// DeleteToken deactivates one of the caller's device tokens.
// Tokens of other owners are reported as not found and left untouched.
func (h *HTTPHandlerImpl) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
		return
	}

	var req TokenDeleteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FCMToken) == "" {
		h.RespondWithError(w, http.StatusBadRequest, "FCM token is required")
		return
	}

	if err := h.tokens.DeactivateToken(r.Context(), ownerID, req.FCMToken); err != nil {
		h.respondStoreError(w, r, "deactivate_token", "Token not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

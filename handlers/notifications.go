package handlers

import (
	"net/http"
	"strconv"

	"cmcs/middleware"
	"cmcs/notifications"

	"github.com/go-chi/chi/v5"
)

type NotificationsHandler struct {
	service *notifications.Service
}

func NewNotificationsHandler(service *notifications.Service) *NotificationsHandler {
	return &NotificationsHandler{service: service}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	list, err := h.service.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if err := h.service.MarkAllRead(r.Context(), user.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.service.MarkRead(r.Context(), uint(id), user.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

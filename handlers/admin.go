package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"cmcs/claims"
	"cmcs/database"
	"cmcs/middleware"
	"cmcs/models"
	"cmcs/notifications"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler is administrator-only user management. Hourly rate edits
// take effect for future submissions only; existing claims keep their
// snapshot. Account changes are announced to everyone as system
// broadcasts.
type AdminHandler struct {
	notifier *notifications.Service
}

func NewAdminHandler(notifier *notifications.Service) *AdminHandler {
	return &AdminHandler{notifier: notifier}
}

// broadcast is best effort; a failed announcement never fails the admin
// action it describes.
func (h *AdminHandler) broadcast(r *http.Request, message string) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Broadcast(r.Context(), message, models.NotificationInfo); err != nil {
		slog.Warn("failed to broadcast admin notification", "error", err)
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := database.GetDB().Order("last_name, first_name").Find(&users).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username   string      `json:"username"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Password   string      `json:"password"`
	Role       models.Role `json:"role"`
	HourlyRate float64     `json:"hourly_rate"`
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validRole(req.Role) {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.HourlyRate <= 0 || req.HourlyRate > claims.MaxHourlyRate {
		respondError(w, http.StatusBadRequest, "hourly rate is outside the acceptable range")
		return
	}
	if len(req.Username) < 3 || len(req.Password) < 5 {
		respondError(w, http.StatusBadRequest, "username or password too short")
		return
	}

	var existing models.User
	if err := database.GetDB().Where("username = ?", req.Username).First(&existing).Error; err == nil {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := models.User{
		Username:           req.Username,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		PasswordHash:       string(hashedPassword),
		Role:               req.Role,
		HourlyRate:         req.HourlyRate,
		MustChangePassword: true,
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.broadcast(r, fmt.Sprintf("New user %s created successfully with hourly rate R%.2f", user.FullName(), user.HourlyRate))
	respondJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Role       models.Role `json:"role"`
	HourlyRate float64     `json:"hourly_rate"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validRole(req.Role) {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.HourlyRate <= 0 || req.HourlyRate > claims.MaxHourlyRate {
		respondError(w, http.StatusBadRequest, "hourly rate is outside the acceptable range")
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	oldRole := user.Role
	oldRate := user.HourlyRate

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = req.Role
	user.HourlyRate = req.HourlyRate
	if err := database.GetDB().Save(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	message := fmt.Sprintf("User %s updated", user.FullName())
	if oldRole != user.Role {
		message += fmt.Sprintf(", role changed from %s to %s", oldRole, user.Role)
	}
	if oldRate != user.HourlyRate {
		message += fmt.Sprintf(", hourly rate changed from R%.2f to R%.2f", oldRate, user.HourlyRate)
	}
	h.broadcast(r, message)

	respondJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())

	id, err := userID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Administrators cannot delete their own account.
	if id == actor.ID {
		respondError(w, http.StatusForbidden, "you cannot delete your own account")
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := database.GetDB().Delete(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.broadcast(r, fmt.Sprintf("User %s deleted from system", user.Username))
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func validRole(role models.Role) bool {
	switch role {
	case models.RoleLecturer, models.RoleCoordinator, models.RoleManager, models.RoleAdministrator:
		return true
	}
	return false
}

func userID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

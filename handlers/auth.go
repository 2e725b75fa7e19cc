package handlers

import (
	"net/http"
	"time"

	"cmcs/claims"
	"cmcs/config"
	"cmcs/database"
	"cmcs/middleware"
	"cmcs/models"

	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string      `json:"token"`
	Role               models.Role `json:"role"`
	MustChangePassword bool        `json:"must_change_password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", req.Username).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(&user, h.config.JWTExpiration)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.setTokenCookie(w, token)
	respondJSON(w, http.StatusOK, loginResponse{
		Token:              token,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		respondError(w, http.StatusForbidden, "current password is incorrect")
		return
	}

	if len(req.NewPassword) < 5 {
		respondError(w, http.StatusBadRequest, "password must be at least 5 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user.PasswordHash = string(hashedPassword)
	user.MustChangePassword = false
	if err := database.GetDB().Save(user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.setTokenCookie(w, token)
	respondJSON(w, http.StatusOK, loginResponse{Token: token, Role: user.Role})
}

type registerRequest struct {
	Code      string `json:"code"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Register redeems a single-use invite. Role and hourly rate come from
// the invite, never from the request.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var invite models.Invite
	if err := database.GetDB().Where("code = ?", req.Code).First(&invite).Error; err != nil {
		respondError(w, http.StatusBadRequest, "invalid invite code")
		return
	}
	if !invite.IsValid() {
		respondError(w, http.StatusBadRequest, "invite has expired or already been used")
		return
	}

	if len(req.Username) < 3 {
		respondError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}
	if len(req.Password) < 5 {
		respondError(w, http.StatusBadRequest, "password must be at least 5 characters")
		return
	}

	var existing models.User
	if err := database.GetDB().Where("username = ?", req.Username).First(&existing).Error; err == nil {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	user := models.User{
		Username:           req.Username,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		PasswordHash:       string(hashedPassword),
		Role:               invite.Role,
		HourlyRate:         invite.HourlyRate,
		MustChangePassword: false,
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	invite.Used = true
	database.GetDB().Save(&invite)

	token, err := middleware.GenerateToken(&user, h.config.JWTExpiration)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.setTokenCookie(w, token)
	respondJSON(w, http.StatusCreated, loginResponse{Token: token, Role: user.Role})
}

type createInviteRequest struct {
	Role       models.Role `json:"role"`
	HourlyRate float64     `json:"hourly_rate"`
}

func (h *AuthHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if !user.CanCreateInvites() {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var invites []models.Invite
	database.GetDB().Where("created_by = ?", user.ID).Order("created_at desc").Find(&invites)
	respondJSON(w, http.StatusOK, invites)
}

func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if !user.CanCreateInvites() {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Role {
	case models.RoleLecturer, models.RoleCoordinator, models.RoleManager:
	default:
		respondError(w, http.StatusBadRequest, "invalid role for invite")
		return
	}
	if req.HourlyRate <= 0 || req.HourlyRate > claims.MaxHourlyRate {
		respondError(w, http.StatusBadRequest, "hourly rate is outside the acceptable range")
		return
	}

	code, err := models.GenerateInviteCode()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate invite code")
		return
	}

	invite := models.Invite{
		Code:       code,
		Role:       req.Role,
		HourlyRate: req.HourlyRate,
		CreatedBy:  user.ID,
		ExpiresAt:  time.Now().Add(h.config.InviteExpiration),
	}
	if err := database.GetDB().Create(&invite).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	respondJSON(w, http.StatusCreated, invite)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.JWTExpiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

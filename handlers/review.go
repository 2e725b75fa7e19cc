package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"cmcs/claims"
	"cmcs/database"
	"cmcs/middleware"
	"cmcs/models"
	"cmcs/reports"

	"gorm.io/gorm"
)

// ReviewHandler exposes the transition endpoints. Route-level role
// guards keep strangers out; the engine re-checks role against action,
// since route guards are coarser than action permissions.
type ReviewHandler struct {
	engine *claims.Engine
	stats  *reports.StatsCache
}

func NewReviewHandler(engine *claims.Engine, stats *reports.StatsCache) *ReviewHandler {
	return &ReviewHandler{engine: engine, stats: stats}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type transitionFunc func(r *http.Request, actor *models.User, claimID uint) (*models.Claim, error)

func (h *ReviewHandler) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := claimID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := apply(r, user, id)
	if err != nil {
		respondClaimError(w, err)
		return
	}

	h.stats.Invalidate()
	respondJSON(w, http.StatusOK, claim)
}

// rejectReason reads the reason from the body. An absent body is an
// empty reason (the engine reports MissingReason); a malformed one is a
// decode error.
func (h *ReviewHandler) rejectReason(r *http.Request) (string, error) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return req.Reason, nil
}

func (h *ReviewHandler) CoordinatorApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor *models.User, id uint) (*models.Claim, error) {
		return h.engine.CoordinatorApprove(r.Context(), actor, id)
	})
}

func (h *ReviewHandler) CoordinatorReject(w http.ResponseWriter, r *http.Request) {
	reason, err := h.rejectReason(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.transition(w, r, func(r *http.Request, actor *models.User, id uint) (*models.Claim, error) {
		return h.engine.CoordinatorReject(r.Context(), actor, id, reason)
	})
}

func (h *ReviewHandler) FinalApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor *models.User, id uint) (*models.Claim, error) {
		return h.engine.FinalApprove(r.Context(), actor, id)
	})
}

func (h *ReviewHandler) FinalReject(w http.ResponseWriter, r *http.Request) {
	reason, err := h.rejectReason(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.transition(w, r, func(r *http.Request, actor *models.User, id uint) (*models.Claim, error) {
		return h.engine.FinalReject(r.Context(), actor, id, reason)
	})
}

func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor *models.User, id uint) (*models.Claim, error) {
		return h.engine.Approve(r.Context(), actor, id)
	})
}

func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	reason, err := h.rejectReason(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.transition(w, r, func(r *http.Request, actor *models.User, id uint) (*models.Claim, error) {
		return h.engine.Reject(r.Context(), actor, id, reason)
	})
}

type coordinatorDashboardResponse struct {
	Claims            []models.Claim `json:"claims"`
	TotalPending      int64          `json:"total_pending"`
	WaitingForManager int64          `json:"waiting_for_manager"`
}

// CoordinatorDashboard lists claims in flight, optionally filtered by
// lecturer name or status.
func (h *ReviewHandler) CoordinatorDashboard(w http.ResponseWriter, r *http.Request) {
	db := database.GetDB()

	query := db.Preload("User").Preload("Documents").Preload("ProcessedByUser")
	query = applyLecturerFilter(query, r.URL.Query().Get("lecturer"))

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("claims.status = ?", status)
	} else {
		query = query.Where("claims.status IN ?", []models.ClaimStatus{
			models.StatusPending, models.StatusCoordinatorApproved,
		})
	}

	var list []models.Claim
	if err := query.Order("claims.submit_date desc").Find(&list).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}

	var pending, waiting int64
	db.Model(&models.Claim{}).Where("status = ?", models.StatusPending).Count(&pending)
	db.Model(&models.Claim{}).Where("status = ?", models.StatusCoordinatorApproved).Count(&waiting)

	respondJSON(w, http.StatusOK, coordinatorDashboardResponse{
		Claims:            list,
		TotalPending:      pending,
		WaitingForManager: waiting,
	})
}

// ManagerDashboard lists everything awaiting final approval, oldest
// first.
func (h *ReviewHandler) ManagerDashboard(w http.ResponseWriter, r *http.Request) {
	query := database.GetDB().
		Preload("User").Preload("Documents").Preload("ProcessedByUser").
		Where("claims.status IN ?", []models.ClaimStatus{
			models.StatusPending, models.StatusCoordinatorApproved,
		})
	query = applyLecturerFilter(query, r.URL.Query().Get("lecturer"))

	var list []models.Claim
	if err := query.Order("claims.submit_date asc").Find(&list).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func applyLecturerFilter(query *gorm.DB, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return query
	}
	pattern := "%" + term + "%"
	return query.Joins("JOIN users ON users.id = claims.user_id").
		Where("users.first_name LIKE ? OR users.last_name LIKE ?", pattern, pattern)
}

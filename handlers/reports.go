package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"cmcs/database"
	"cmcs/middleware"
	"cmcs/models"
	"cmcs/reports"
)

type ReportsHandler struct {
	stats *reports.StatsCache
}

func NewReportsHandler(stats *reports.StatsCache) *ReportsHandler {
	return &ReportsHandler{stats: stats}
}

// Dashboard returns the caller's claim counts through the versioned
// stats cache.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	stats, err := h.stats.Get(r.Context(), user.ID, loadDashboardStats)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func loadDashboardStats(ctx context.Context, userID uint) (reports.DashboardStats, error) {
	db := database.GetDB().WithContext(ctx)
	var stats reports.DashboardStats

	counts := []struct {
		dst      *int64
		statuses []models.ClaimStatus
	}{
		{&stats.Pending, []models.ClaimStatus{models.StatusPending, models.StatusCoordinatorApproved}},
		{&stats.CoordinatorApproved, []models.ClaimStatus{models.StatusCoordinatorApproved}},
		{&stats.Approved, []models.ClaimStatus{models.StatusApproved}},
		{&stats.Rejected, []models.ClaimStatus{models.StatusRejected}},
	}
	for _, c := range counts {
		err := db.Model(&models.Claim{}).
			Where("user_id = ? AND status IN ?", userID, c.statuses).
			Count(c.dst).Error
		if err != nil {
			return reports.DashboardStats{}, err
		}
	}
	if err := db.Model(&models.Claim{}).Where("user_id = ?", userID).Count(&stats.Total).Error; err != nil {
		return reports.DashboardStats{}, err
	}
	return stats, nil
}

// PaymentReportCSV exports the approved claims for a period as the
// payment run input.
func (h *ReportsHandler) PaymentReportCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if !user.CanExport() {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	period := r.URL.Query().Get("period")

	query := database.GetDB().Preload("User").
		Where("status = ?", models.StatusApproved)
	if period != "" {
		query = query.Where("period = ?", period)
	}

	var approved []models.Claim
	if err := query.
		Joins("JOIN users ON users.id = claims.user_id").
		Order("users.last_name asc, users.first_name asc").
		Find(&approved).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load approved claims")
		return
	}

	label := period
	if label == "" {
		label = "All"
	}
	filename := fmt.Sprintf("PaymentReport_%s_%s.csv", label, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{"Lecturer Name", "Username", "Period", "Workload Hours", "Hourly Rate", "Total Amount", "Approval Date"})

	var total float64
	for _, claim := range approved {
		approvalDate := ""
		if claim.ApprovalDate != nil {
			approvalDate = claim.ApprovalDate.Format("2006-01-02")
		}
		writer.Write([]string{
			claim.User.FullName(),
			claim.User.Username,
			claim.Period,
			fmt.Sprintf("%.2f", claim.Workload),
			fmt.Sprintf("R%.2f", claim.HourlyRate),
			fmt.Sprintf("R%.2f", claim.Amount),
			approvalDate,
		})
		total += claim.Amount
	}

	writer.Write([]string{""})
	writer.Write([]string{"Total Claims", fmt.Sprintf("%d", len(approved))})
	writer.Write([]string{"Total Amount", fmt.Sprintf("R%.2f", total)})
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"cmcs/claims"
	"cmcs/config"
	"cmcs/database"
	"cmcs/middleware"
	"cmcs/models"
	"cmcs/notifications"
	"cmcs/reports"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	notifier *notifications.Service
	claims   *ClaimsHandler
	review   *ReviewHandler
	reports  *ReportsHandler
	admin    *AdminHandler
	notifs   *NotificationsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	cfg := &config.Config{
		UploadsDir:     t.TempDir(),
		MaxUploadBytes: 5 * 1024 * 1024,
	}
	notifier := notifications.NewService(db)
	engine := claims.NewEngine(database.NewClaimRepository(db), notifier, nil)
	stats := reports.NewStatsCache()

	return &testEnv{
		db:       db,
		cfg:      cfg,
		notifier: notifier,
		claims:   NewClaimsHandler(cfg, engine, stats),
		review:   NewReviewHandler(engine, stats),
		reports:  NewReportsHandler(stats),
		admin:    NewAdminHandler(notifier),
		notifs:   NewNotificationsHandler(notifier),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	u := models.User{
		Username: username, FirstName: username, LastName: "Test",
		PasswordHash: "x", Role: role, HourlyRate: 250,
	}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func jsonRequest(t *testing.T, method, target string, body interface{}, user *models.User) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
	return r.WithContext(ctx)
}

func withClaimID(r *http.Request, id uint) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", fmt.Sprintf("%d", id))
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func attachDocument(t *testing.T, db *gorm.DB, claimID uint) {
	t.Helper()
	doc := models.Document{
		ClaimID: claimID, FileName: "timesheet.pdf", FilePath: "a.pdf",
		FileSize: 10, ContentType: "application/pdf", UploadDate: time.Now(),
	}
	require.NoError(t, db.Create(&doc).Error)
}

func TestSubmitEndpoint(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.createUser(t, "lect", models.RoleLecturer)

	t.Run("creates a pending claim", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.claims.Submit(rec, jsonRequest(t, http.MethodPost, "/claims", map[string]interface{}{
			"period":   "August 2025",
			"workload": 20,
		}, lecturer))

		require.Equal(t, http.StatusCreated, rec.Code)
		var claim models.Claim
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&claim))
		assert.Equal(t, models.StatusPending, claim.Status)
		assert.Equal(t, 250.0, claim.HourlyRate)
		assert.Equal(t, 5000.0, claim.Amount)
	})

	t.Run("duplicate period is unprocessable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.claims.Submit(rec, jsonRequest(t, http.MethodPost, "/claims", map[string]interface{}{
			"period":   "August 2025",
			"workload": 10,
		}, lecturer))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("excessive workload reports the reason", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.claims.Submit(rec, jsonRequest(t, http.MethodPost, "/claims", map[string]interface{}{
			"period":   "September 2025",
			"workload": 200,
		}, lecturer))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, string(claims.ReasonInvalidWorkload), resp.Reason)
	})

	t.Run("missing period is a bad request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.claims.Submit(rec, jsonRequest(t, http.MethodPost, "/claims", map[string]interface{}{
			"workload": 10,
		}, lecturer))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApprovalFlowEndpoints(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.createUser(t, "lect", models.RoleLecturer)
	coordinator := env.createUser(t, "coord", models.RoleCoordinator)
	manager := env.createUser(t, "mgr", models.RoleManager)

	rec := httptest.NewRecorder()
	env.claims.Submit(rec, jsonRequest(t, http.MethodPost, "/claims", map[string]interface{}{
		"period":   "August 2025",
		"workload": 20,
	}, lecturer))
	require.Equal(t, http.StatusCreated, rec.Code)

	var claim models.Claim
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&claim))
	attachDocument(t, env.db, claim.ID)

	t.Run("coordinator approves", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withClaimID(jsonRequest(t, http.MethodPost, "/coordinator/claims/1/approve", nil, coordinator), claim.ID)
		env.review.CoordinatorApprove(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Claim
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, models.StatusCoordinatorApproved, got.Status)
	})

	t.Run("second coordinator approval conflicts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withClaimID(jsonRequest(t, http.MethodPost, "/coordinator/claims/1/approve", nil, coordinator), claim.ID)
		env.review.CoordinatorApprove(rec, r)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("manager rejection without a reason is unprocessable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withClaimID(jsonRequest(t, http.MethodPost, "/manager/claims/1/reject", map[string]string{}, manager), claim.ID)
		env.review.FinalReject(rec, r)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("manager approves", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withClaimID(jsonRequest(t, http.MethodPost, "/manager/claims/1/approve", nil, manager), claim.ID)
		env.review.FinalApprove(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Claim
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, models.StatusApproved, got.Status)
		assert.NotNil(t, got.ApprovalDate)
	})

	t.Run("malformed rejection body is a bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/manager/claims/1/reject", strings.NewReader("{not json"))
		r.Header.Set("Content-Type", "application/json")
		ctx := context.WithValue(r.Context(), middleware.UserContextKey, manager)
		rec := httptest.NewRecorder()
		env.review.FinalReject(rec, withClaimID(r.WithContext(ctx), claim.ID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("absent rejection body reports a missing reason", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/manager/claims/1/reject", nil)
		ctx := context.WithValue(r.Context(), middleware.UserContextKey, manager)
		rec := httptest.NewRecorder()
		env.review.FinalReject(rec, withClaimID(r.WithContext(ctx), claim.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown claim is not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withClaimID(jsonRequest(t, http.MethodPost, "/manager/claims/999/approve", nil, manager), 999)
		env.review.FinalApprove(rec, r)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("dashboard reflects the approval", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.reports.Dashboard(rec, jsonRequest(t, http.MethodGet, "/dashboard", nil, lecturer))

		require.Equal(t, http.StatusOK, rec.Code)
		var stats reports.DashboardStats
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
		assert.Equal(t, int64(1), stats.Total)
		assert.Equal(t, int64(1), stats.Approved)
		assert.Equal(t, int64(0), stats.Pending)
	})
}

func multipartUpload(t *testing.T, filenames []string, user *models.User, claimID uint) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range filenames {
		fw, err := mw.CreateFormFile("documents", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/claims/1/documents", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
	return withClaimID(r.WithContext(ctx), claimID)
}

func TestUploadDocumentsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	lecturer := env.createUser(t, "lect", models.RoleLecturer)

	claim := models.Claim{
		UserID: lecturer.ID, Period: "August 2025",
		Workload: 20, HourlyRate: 250, Amount: 5000,
		Status: models.StatusPending, SubmitDate: time.Now(),
	}
	require.NoError(t, env.db.Create(&claim).Error)

	countDocs := func() int64 {
		var n int64
		require.NoError(t, env.db.Model(&models.Document{}).Where("claim_id = ?", claim.ID).Count(&n).Error)
		return n
	}

	t.Run("rejected batch saves nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.claims.UploadDocuments(rec, multipartUpload(t, []string{"timesheet.pdf", "payload.exe"}, lecturer, claim.ID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, int64(0), countDocs())

		entries, err := os.ReadDir(env.cfg.UploadsDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("valid batch saves every file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.claims.UploadDocuments(rec, multipartUpload(t, []string{"timesheet.pdf", "receipt.jpg"}, lecturer, claim.ID))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, int64(2), countDocs())

		entries, err := os.ReadDir(env.cfg.UploadsDir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

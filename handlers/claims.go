package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cmcs/claims"
	"cmcs/config"
	"cmcs/database"
	"cmcs/middleware"
	"cmcs/models"
	"cmcs/reports"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// allowedDocumentExtensions is the upload allowlist for supporting
// documents.
var allowedDocumentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type ClaimsHandler struct {
	config *config.Config
	engine *claims.Engine
	stats  *reports.StatsCache
}

func NewClaimsHandler(cfg *config.Config, engine *claims.Engine, stats *reports.StatsCache) *ClaimsHandler {
	return &ClaimsHandler{config: cfg, engine: engine, stats: stats}
}

type submitClaimRequest struct {
	Period      string  `json:"period"`
	Workload    float64 `json:"workload"`
	Description string  `json:"description"`
}

func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req submitClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Period = strings.TrimSpace(req.Period)
	if req.Period == "" || len(req.Period) > 20 {
		respondError(w, http.StatusBadRequest, "period is required and must be at most 20 characters")
		return
	}
	if len(req.Description) > 500 {
		respondError(w, http.StatusBadRequest, "description must be at most 500 characters")
		return
	}

	claim, err := h.engine.Submit(r.Context(), user, claims.SubmitInput{
		Period:      req.Period,
		Workload:    req.Workload,
		Description: req.Description,
	})
	if err != nil {
		respondClaimError(w, err)
		return
	}

	h.stats.Invalidate()
	respondJSON(w, http.StatusCreated, claim)
}

// List returns the caller's own claims; reviewer roles see everyone's.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	query := database.GetDB().Preload("User").Preload("Documents").Preload("ProcessedByUser")
	if !user.CanReviewClaims() {
		query = query.Where("user_id = ?", user.ID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if period := r.URL.Query().Get("period"); period != "" {
		query = query.Where("period = ?", period)
	}

	var list []models.Claim
	if err := query.Order("submit_date desc").Find(&list).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := claimID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var claim models.Claim
	err = database.GetDB().
		Preload("User").
		Preload("Documents").
		Preload("ProcessedByUser").
		First(&claim, id).Error
	if err != nil {
		respondError(w, http.StatusNotFound, "claim not found")
		return
	}

	if !user.CanViewClaimOf(claim.UserID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

// UploadDocuments attaches supporting files to one of the caller's own
// claims. Terminal claims cannot gain documents.
func (h *ClaimsHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := claimID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var claim models.Claim
	if err := database.GetDB().First(&claim, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "claim not found")
		return
	}
	if claim.UserID != user.ID {
		respondError(w, http.StatusForbidden, "documents can only be uploaded to your own claims")
		return
	}
	if claim.Status.Terminal() {
		respondError(w, http.StatusConflict, "claim has already been processed")
		return
	}

	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "at least one document is required")
		return
	}

	// The upload is all or nothing: validate every file before writing
	// anything, record the metadata in one transaction, and remove
	// written files if that transaction fails.
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedDocumentExtensions[ext] {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("file type %s is not allowed", ext))
			return
		}
		if fh.Size > h.config.MaxUploadBytes {
			respondError(w, http.StatusBadRequest, "file exceeds the maximum upload size")
			return
		}
	}

	if err := os.MkdirAll(h.config.UploadsDir, 0o755); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store documents")
		return
	}

	var written []string
	removeWritten := func() {
		for _, path := range written {
			os.Remove(path)
		}
	}

	saved := make([]models.Document, 0, len(files))
	for _, fh := range files {
		storageName := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
		path := filepath.Join(h.config.UploadsDir, storageName)
		if err := saveUpload(fh, path); err != nil {
			removeWritten()
			respondError(w, http.StatusInternalServerError, "failed to store documents")
			return
		}
		written = append(written, path)

		saved = append(saved, models.Document{
			ClaimID:     claim.ID,
			FileName:    fh.Filename,
			FilePath:    storageName,
			FileSize:    fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Description: fmt.Sprintf("Supporting document for claim %d", claim.ID),
			UploadDate:  time.Now(),
		})
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		for i := range saved {
			if err := tx.Create(&saved[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		removeWritten()
		respondError(w, http.StatusInternalServerError, "failed to record documents")
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

func (h *ClaimsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := claimID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var claim models.Claim
	if err := database.GetDB().Preload("Documents").First(&claim, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "claim not found")
		return
	}
	if !user.CanViewClaimOf(claim.UserID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	respondJSON(w, http.StatusOK, claim.Documents)
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func claimID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

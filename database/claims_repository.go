package database

import (
	"context"
	"errors"

	"cmcs/claims"
	"cmcs/models"

	"gorm.io/gorm"
)

// ClaimRepository is the gorm-backed claims.Store.
type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) LoadClaim(ctx context.Context, id uint) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Documents").
		Preload("ProcessedByUser").
		First(&claim, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, claims.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *ClaimRepository) CreateClaim(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *ClaimRepository) HasClaimForPeriod(ctx context.Context, userID uint, period string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Claim{}).
		Where("user_id = ? AND period = ?", userID, period).
		Count(&count).Error
	return count > 0, err
}

// ApplyTransition writes the transition with the source state in the
// WHERE clause. If another request moved the claim between our read and
// this write the update matches zero rows and nothing is overwritten.
func (r *ClaimRepository) ApplyTransition(ctx context.Context, claim *models.Claim, from models.ClaimStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Claim{}).
			Where("id = ? AND status = ?", claim.ID, from).
			Updates(map[string]interface{}{
				"status":               claim.Status,
				"processed_by_user_id": claim.ProcessedByUserID,
				"processed_date":       claim.ProcessedDate,
				"approval_date":        claim.ApprovalDate,
				"rejection_reason":     claim.RejectionReason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return claims.ErrConcurrentModification
		}
		return nil
	})
}

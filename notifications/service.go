package notifications

import (
	"context"
	"time"

	"cmcs/models"

	"gorm.io/gorm"
)

const systemSender = "Claims System"

// Service stores and lists in-app notifications. It implements
// claims.Notifier for the transition engine.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Notify(ctx context.Context, recipientID uint, message string, severity models.NotificationType) error {
	n := models.Notification{
		Content: message,
		Sender:  systemSender,
		UserID:  &recipientID,
		Type:    severity,
		Date:    time.Now(),
	}
	return s.db.WithContext(ctx).Create(&n).Error
}

// Broadcast creates a system-wide notification visible to all users.
func (s *Service) Broadcast(ctx context.Context, message string, severity models.NotificationType) error {
	n := models.Notification{
		Content: message,
		Sender:  systemSender,
		Type:    severity,
		Date:    time.Now(),
	}
	return s.db.WithContext(ctx).Create(&n).Error
}

// ListForUser returns the user's ten most recent notifications,
// broadcasts included.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id IS NULL OR user_id = ?", userID).
		Order("date desc").
		Limit(10).
		Find(&list).Error
	return list, err
}

// MarkAllRead marks every unread notification visible to the user read,
// broadcasts included.
func (s *Service) MarkAllRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("(user_id IS NULL OR user_id = ?) AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND (user_id IS NULL OR user_id = ?)", notificationID, userID).
		Update("is_read", true).Error
}

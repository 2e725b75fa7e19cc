package models

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationWarning NotificationType = "WARNING"
	NotificationError   NotificationType = "ERROR"
)

// Notification is an in-app message for a user. A nil UserID marks a
// system-wide broadcast visible to everyone.
type Notification struct {
	ID      uint             `gorm:"primaryKey" json:"id"`
	Content string           `gorm:"not null;size:500" json:"content"`
	Sender  string           `gorm:"not null;size:100" json:"sender"`
	UserID  *uint            `gorm:"index" json:"user_id,omitempty"`
	Type    NotificationType `gorm:"not null;size:20" json:"type"`
	IsRead  bool             `gorm:"default:false" json:"is_read"`
	Date    time.Time        `gorm:"not null" json:"date"`
}

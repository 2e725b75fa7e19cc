package models

import (
	"time"
)

type ClaimStatus string

const (
	StatusPending             ClaimStatus = "PENDING"
	StatusCoordinatorApproved ClaimStatus = "COORDINATOR_APPROVED"
	StatusApproved            ClaimStatus = "APPROVED"
	StatusRejected            ClaimStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s ClaimStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Claim is a lecturer's monthly timesheet claim. HourlyRate is a snapshot
// of the owner's rate at submission time and is never re-read from the
// user record afterwards. Amount is stored but must always equal
// Workload * HourlyRate. Claims are never physically deleted.
type Claim struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	UserID            uint        `gorm:"not null;index" json:"user_id"`
	User              User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Period            string      `gorm:"not null;size:20" json:"period"`
	Workload          float64     `gorm:"not null" json:"workload"`
	HourlyRate        float64     `gorm:"not null" json:"hourly_rate"`
	Amount            float64     `gorm:"not null" json:"amount"`
	Description       string      `gorm:"size:500" json:"description"`
	Status            ClaimStatus `gorm:"not null;size:30;index" json:"status"`
	SubmitDate        time.Time   `gorm:"not null" json:"submit_date"`
	ProcessedByUserID *uint       `json:"processed_by_user_id,omitempty"`
	ProcessedByUser   *User       `gorm:"foreignKey:ProcessedByUserID" json:"processed_by_user,omitempty"`
	ProcessedDate     *time.Time  `json:"processed_date,omitempty"`
	ApprovalDate      *time.Time  `json:"approval_date,omitempty"`
	RejectionReason   *string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	Documents         []Document  `gorm:"foreignKey:ClaimID" json:"documents,omitempty"`
}

type ClaimFilter struct {
	UserID       uint
	Status       ClaimStatus
	Statuses     []ClaimStatus
	LecturerName string
	Period       string
}

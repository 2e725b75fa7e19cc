package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleLecturer      Role = "LECTURER"
	RoleCoordinator   Role = "COORDINATOR"
	RoleManager       Role = "MANAGER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Username           string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FirstName          string         `gorm:"not null;size:50" json:"first_name"`
	LastName           string         `gorm:"not null;size:50" json:"last_name"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Role               Role           `gorm:"not null;size:20" json:"role"`
	HourlyRate         float64        `gorm:"not null" json:"hourly_rate"`
	MustChangePassword bool           `gorm:"default:true" json:"must_change_password"`
	Claims             []Claim        `gorm:"foreignKey:UserID" json:"claims,omitempty"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

func (u *User) IsCoordinator() bool {
	return u.Role == RoleCoordinator
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// CanReviewClaims reports whether the user may see claims other than their own.
func (u *User) CanReviewClaims() bool {
	return u.IsCoordinator() || u.IsManager() || u.IsAdministrator()
}

func (u *User) CanViewClaimOf(ownerID uint) bool {
	return u.ID == ownerID || u.CanReviewClaims()
}

func (u *User) CanExport() bool {
	return u.IsManager() || u.IsAdministrator()
}

func (u *User) CanManageUsers() bool {
	return u.IsAdministrator()
}

func (u *User) CanCreateInvites() bool {
	return u.IsAdministrator()
}

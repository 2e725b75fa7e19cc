package models

import "time"

// Document is the metadata row for an uploaded supporting file. FilePath
// is the generated storage name under the uploads directory, FileName the
// name the lecturer uploaded it with.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ClaimID     uint      `gorm:"not null;index" json:"claim_id"`
	FileName    string    `gorm:"not null;size:255" json:"file_name"`
	FilePath    string    `gorm:"not null;size:500" json:"-"`
	FileSize    int64     `gorm:"not null" json:"file_size"`
	ContentType string    `gorm:"not null;size:100" json:"content_type"`
	Description string    `gorm:"size:500" json:"description"`
	UploadDate  time.Time `gorm:"not null" json:"upload_date"`
}

package model

import (
	"time"
)

// Attachment references a receipt file stored in object storage.
// Archiving the parent log keeps the blob; deleting the attachment
// removes the blob first, then this row.
type Attachment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LogID      uint      `json:"log_id" gorm:"index;not null"`
	StorageKey string    `json:"-" gorm:"type:text;not null"`
	FileName   string    `json:"file_name" gorm:"type:varchar(255);not null"`
	MimeType   string    `json:"mime_type" gorm:"type:varchar(100)"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

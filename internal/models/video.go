package models

import "time"

// Video represents one uploaded file owned by a single user. Filename is the
// basename under which the binary is stored on disk; Title is an optional
// display label.
type Video struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Filename   string    `json:"filename" gorm:"type:varchar(200);not null"`
	Title      string    `json:"title" gorm:"type:varchar(200)"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	UploadDate time.Time `json:"upload_date"`
}

package model

import (
	"time"
)

// File describes an uploaded source file. The pipeline only reads it.
type File struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"` // Who uploaded and owns this file
	Filename     string    `db:"filename" json:"filename"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	StoragePath  string    `db:"storage_path" json:"-"`
	Checksum     string    `db:"checksum" json:"checksum"` // xxhash64 of the content, hex
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

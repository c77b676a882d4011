package model

import "time"

// Asset is one immutable stored binary object. Rows are created at upload
// or when a processing stage produces an output, and never mutated.
type Asset struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	StorageBucket string    `json:"storageBucket"`
	StorageKey    string    `json:"storageKey"`
	SizeBytes     int64     `json:"sizeBytes"`
	MimeType      string    `json:"mimeType"`
	ContentHash   string    `json:"contentHash"`
	CreatedAt     time.Time `json:"createdAt"`
}

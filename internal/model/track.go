package model

import "time"

// Track is the user-facing entity a version belongs to. Only the fields the
// processors touch live here; the rest of the track record belongs to the
// API service.
type Track struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"userId" gorm:"index"`
	Title          string    `json:"title"`
	ArtworkAssetID *string   `json:"artworkAssetId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// VersionStatus is advanced only by processors, never by the queue.
type VersionStatus string

const (
	VersionStatusPending VersionStatus = "pending"
	VersionStatusReady   VersionStatus = "ready"
	VersionStatusFailed  VersionStatus = "failed"
)

// TrackVersion holds one uploaded audio file and its derived technical
// metadata.
type TrackVersion struct {
	ID              string        `json:"id" gorm:"primaryKey"`
	TrackID         string        `json:"trackId" gorm:"index"`
	OriginalAssetID string        `json:"originalAssetId"`
	DurationSeconds float64       `json:"durationSeconds"`
	SampleRate      int           `json:"sampleRate"`
	ChannelCount    int           `json:"channelCount"`
	// EBU R128 loudness measurements, set by the loudness stage.
	IntegratedLoudness *float64 `json:"integratedLoudness,omitempty"`
	TruePeakDb         *float64 `json:"truePeakDb,omitempty"`
	LoudnessRange      *float64 `json:"loudnessRange,omitempty"`
	Status             VersionStatus `json:"status"`
	ErrorMessage       *string       `json:"errorMessage,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Transcode records the streaming rendition of a track version.
type Transcode struct {
	ID              string        `json:"id" gorm:"primaryKey"`
	TrackVersionID  string        `json:"trackVersionId" gorm:"index"`
	Format          string        `json:"format"`
	Status          VersionStatus `json:"status"`
	PlaylistAssetID *string       `json:"playlistAssetId,omitempty"`
	SegmentCount    int           `json:"segmentCount"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Waveform references the peak data and preview image produced for a
// track version.
type Waveform struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	TrackVersionID string    `json:"trackVersionId" gorm:"index"`
	PeaksAssetID   string    `json:"peaksAssetId"`
	PreviewAssetID string    `json:"previewAssetId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AudioFingerprint is the content-based fingerprint of a track version.
// The fingerprint column is deliberately not unique: identical values are
// how duplicates are detected.
type AudioFingerprint struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	TrackVersionID  string    `json:"trackVersionId" gorm:"index"`
	Fingerprint     string    `json:"fingerprint" gorm:"index"`
	DurationSeconds float64   `json:"durationSeconds"`
	ExternalMatchID *string   `json:"externalMatchId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ContentReport is an automated moderation report, created when the
// fingerprint stage finds a byte-identical fingerprint on another track.
type ContentReport struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	TrackID        string    `json:"trackId" gorm:"index"`
	ReportedUserID string    `json:"reportedUserId"`
	Reason         string    `json:"reason"`
	Detail         string    `json:"detail"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Report reasons.
const (
	ReportReasonDuplicate = "duplicate_content"
	ReportStatusOpen      = "open"
)

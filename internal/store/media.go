package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundpool/engine/internal/model"
)

// GetAsset fetches one asset row by id.
func (s *Store) GetAsset(ctx context.Context, id string) (*model.Asset, error) {
	var asset model.Asset
	if err := s.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("asset %s: %w", id, wrapNotFound(err))
	}
	return &asset, nil
}

// CreateAsset inserts an immutable asset row for a stored object.
func (s *Store) CreateAsset(ctx context.Context, asset *model.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(asset).Error
}

// GetTrack fetches one track row by id.
func (s *Store) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	if err := s.db.WithContext(ctx).First(&track, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("track %s: %w", id, wrapNotFound(err))
	}
	return &track, nil
}

// GetTrackVersion fetches one track version by id.
func (s *Store) GetTrackVersion(ctx context.Context, id string) (*model.TrackVersion, error) {
	var version model.TrackVersion
	if err := s.db.WithContext(ctx).First(&version, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("track version %s: %w", id, wrapNotFound(err))
	}
	return &version, nil
}

// UpdateTrackArtwork points a track at its extracted artwork asset.
func (s *Store) UpdateTrackArtwork(ctx context.Context, trackID, assetID string) error {
	return s.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", trackID).
		Update("artwork_asset_id", assetID).Error
}

// UpdateTrackVersionMetadata records the technical metadata probed from
// the original file.
func (s *Store) UpdateTrackVersionMetadata(ctx context.Context, id string, durationSeconds float64, sampleRate, channels int) error {
	return s.db.WithContext(ctx).Model(&model.TrackVersion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"duration_seconds": durationSeconds,
			"sample_rate":      sampleRate,
			"channel_count":    channels,
			"updated_at":       time.Now(),
		}).Error
}

// UpdateTrackVersionLoudness records the EBU R128 measurements.
func (s *Store) UpdateTrackVersionLoudness(ctx context.Context, id string, integrated, truePeak, loudnessRange float64) error {
	return s.db.WithContext(ctx).Model(&model.TrackVersion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"integrated_loudness": integrated,
			"true_peak_db":        truePeak,
			"loudness_range":      loudnessRange,
			"updated_at":          time.Now(),
		}).Error
}

// SetTrackVersionStatus advances the version status. The error message is
// preserved on failure and cleared otherwise.
func (s *Store) SetTrackVersionStatus(ctx context.Context, id string, status model.VersionStatus, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errMsg != "" {
		updates["error_message"] = errMsg
	} else {
		updates["error_message"] = nil
	}
	return s.db.WithContext(ctx).Model(&model.TrackVersion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpsertTranscode returns the transcode row for a version+format pair,
// creating a pending one when absent. Retried jobs reuse the same row.
func (s *Store) UpsertTranscode(ctx context.Context, versionID, format string) (*model.Transcode, error) {
	var transcode model.Transcode
	err := s.db.WithContext(ctx).
		Where("track_version_id = ? AND format = ?", versionID, format).
		First(&transcode).Error
	if err == nil {
		return &transcode, nil
	}
	transcode = model.Transcode{
		ID:             uuid.New().String(),
		TrackVersionID: versionID,
		Format:         format,
		Status:         model.VersionStatusPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&transcode).Error; err != nil {
		return nil, err
	}
	return &transcode, nil
}

// CompleteTranscode marks a transcode ready and links its playlist asset.
func (s *Store) CompleteTranscode(ctx context.Context, id, playlistAssetID string, segmentCount int) error {
	return s.db.WithContext(ctx).Model(&model.Transcode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            model.VersionStatusReady,
			"playlist_asset_id": playlistAssetID,
			"segment_count":     segmentCount,
			"updated_at":        time.Now(),
		}).Error
}

// CreateWaveform links the peak data and preview assets to a version.
func (s *Store) CreateWaveform(ctx context.Context, wf *model.Waveform) error {
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(wf).Error
}

// CreateFingerprint inserts a fingerprint row. Identical fingerprint
// values across rows are allowed; they drive duplicate detection.
func (s *Store) CreateFingerprint(ctx context.Context, fp *model.AudioFingerprint) error {
	if fp.ID == "" {
		fp.ID = uuid.New().String()
	}
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(fp).Error
}

// FindFingerprintMatch returns the oldest fingerprint row with a
// byte-identical fingerprint belonging to a different track version, or
// ErrNotFound when the fingerprint is unique.
func (s *Store) FindFingerprintMatch(ctx context.Context, fingerprint, excludeVersionID string) (*model.AudioFingerprint, error) {
	var match model.AudioFingerprint
	err := s.db.WithContext(ctx).
		Where("fingerprint = ? AND track_version_id <> ?", fingerprint, excludeVersionID).
		Order("created_at asc").
		First(&match).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &match, nil
}

// CreateContentReport files an automated moderation report.
func (s *Store) CreateContentReport(ctx context.Context, report *model.ContentReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Status == "" {
		report.Status = model.ReportStatusOpen
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(report).Error
}

// GetWaveformByVersion fetches the waveform row for a track version.
func (s *Store) GetWaveformByVersion(ctx context.Context, versionID string) (*model.Waveform, error) {
	var wf model.Waveform
	err := s.db.WithContext(ctx).
		Where("track_version_id = ?", versionID).
		First(&wf).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &wf, nil
}

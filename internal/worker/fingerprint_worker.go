package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/soundpool/engine/internal/media"
	"github.com/soundpool/engine/internal/model"
	"github.com/soundpool/engine/internal/queue"
	"github.com/soundpool/engine/internal/store"
)

// FingerprintWorker computes the content fingerprint of an upload and
// checks it against every other stored fingerprint. Matching is exact
// string equality only; near-duplicate detection is out of scope.
type FingerprintWorker struct {
	store Store
	blob  BlobClient
	tools media.Toolset
}

// FingerprintResult reports the fingerprint row and any duplicate found.
type FingerprintResult struct {
	Success         bool    `json:"success"`
	FingerprintID   string  `json:"fingerprintId"`
	DurationSeconds float64 `json:"durationSeconds"`
	DuplicateFound  bool    `json:"duplicateFound"`
	OriginalTrackID string  `json:"originalTrackId,omitempty"`
}

func NewFingerprintWorker(store Store, blob BlobClient, tools media.Toolset) *FingerprintWorker {
	return &FingerprintWorker{store: store, blob: blob, tools: tools}
}

func (w *FingerprintWorker) Kind() string { return queue.KindFingerprint }

func (w *FingerprintWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.FingerprintPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid fingerprint payload: %w", err))
	}

	dir, cleanup, err := scratchDir("fingerprint-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	version, _, src, err := fetchOriginal(ctx, w.store, w.blob, p.TrackVersionID, dir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 20)

	printed, err := w.tools.Fingerprint(ctx, src)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 60)

	fp := &model.AudioFingerprint{
		TrackVersionID:  version.ID,
		Fingerprint:     printed.Fingerprint,
		DurationSeconds: printed.DurationSeconds,
	}
	if err := w.store.CreateFingerprint(ctx, fp); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 80)

	result := &FingerprintResult{
		Success:         true,
		FingerprintID:   fp.ID,
		DurationSeconds: printed.DurationSeconds,
	}

	match, err := w.store.FindFingerprintMatch(ctx, printed.Fingerprint, version.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			job.ReportProgress(ctx, 100)
			return result, nil
		}
		return nil, err
	}

	originalVersion, err := w.store.GetTrackVersion(ctx, match.TrackVersionID)
	if err != nil {
		return nil, err
	}
	uploader, err := w.store.GetTrack(ctx, version.TrackID)
	if err != nil {
		return nil, err
	}

	report := &model.ContentReport{
		TrackID:        version.TrackID,
		ReportedUserID: uploader.UserID,
		Reason:         model.ReportReasonDuplicate,
		Detail: fmt.Sprintf("fingerprint identical to track %s (version %s)",
			originalVersion.TrackID, originalVersion.ID),
	}
	if err := w.store.CreateContentReport(ctx, report); err != nil {
		return nil, err
	}
	log.Printf("Duplicate content: track %s matches track %s", version.TrackID, originalVersion.TrackID)

	result.DuplicateFound = true
	result.OriginalTrackID = originalVersion.TrackID
	job.ReportProgress(ctx, 100)
	return result, nil
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/soundpool/engine/internal/media"
	"github.com/soundpool/engine/internal/model"
	"github.com/soundpool/engine/internal/queue"
)

// WaveformWorker extracts the JSON peak data and PNG preview the player
// renders.
type WaveformWorker struct {
	store   Store
	blob    BlobClient
	tools   media.Toolset
	buckets Buckets
}

// WaveformResult references the two assets a waveform run produces.
type WaveformResult struct {
	Success        bool   `json:"success"`
	PeaksAssetID   string `json:"peaksAssetId"`
	PreviewAssetID string `json:"previewAssetId"`
}

func NewWaveformWorker(store Store, blob BlobClient, tools media.Toolset, buckets Buckets) *WaveformWorker {
	return &WaveformWorker{store: store, blob: blob, tools: tools, buckets: buckets}
}

func (w *WaveformWorker) Kind() string { return queue.KindWaveform }

func (w *WaveformWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.WaveformPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid waveform payload: %w", err))
	}

	dir, cleanup, err := scratchDir("waveform-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	version, _, src, err := fetchOriginal(ctx, w.store, w.blob, p.TrackVersionID, dir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 20)

	peaksPath := filepath.Join(dir, "peaks.json")
	previewPath := filepath.Join(dir, "preview.png")
	if err := w.tools.GeneratePeaks(ctx, src, peaksPath, previewPath); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 60)

	peaksAsset, err := w.uploadAsset(ctx, fmt.Sprintf("waveforms/%s/peaks.json", version.ID), peaksPath, "application/json")
	if err != nil {
		return nil, err
	}
	previewAsset, err := w.uploadAsset(ctx, fmt.Sprintf("waveforms/%s/preview.png", version.ID), previewPath, "image/png")
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 90)

	wf := &model.Waveform{
		TrackVersionID: version.ID,
		PeaksAssetID:   peaksAsset.ID,
		PreviewAssetID: previewAsset.ID,
	}
	if err := w.store.CreateWaveform(ctx, wf); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 100)

	return &WaveformResult{
		Success:        true,
		PeaksAssetID:   peaksAsset.ID,
		PreviewAssetID: previewAsset.ID,
	}, nil
}

func (w *WaveformWorker) uploadAsset(ctx context.Context, key, path, contentType string) (*model.Asset, error) {
	info, err := w.blob.UploadFile(ctx, w.buckets.Assets, key, path, contentType)
	if err != nil {
		return nil, err
	}
	asset := &model.Asset{
		StorageBucket: w.buckets.Assets,
		StorageKey:    key,
		SizeBytes:     info.SizeBytes,
		MimeType:      contentType,
		ContentHash:   info.ContentHash,
	}
	if err := w.store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

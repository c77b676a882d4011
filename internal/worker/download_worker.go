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

const defaultDownloadBitrateKbps = 320

// DownloadTranscodeWorker produces the single lossy file offered for
// download.
type DownloadTranscodeWorker struct {
	store   Store
	blob    BlobClient
	tools   media.Toolset
	buckets Buckets
}

// DownloadTranscodeResult carries the stored location of the download
// rendition.
type DownloadTranscodeResult struct {
	Success   bool   `json:"success"`
	AssetID   string `json:"assetId"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	SizeBytes int64  `json:"sizeBytes"`
}

func NewDownloadTranscodeWorker(store Store, blob BlobClient, tools media.Toolset, buckets Buckets) *DownloadTranscodeWorker {
	return &DownloadTranscodeWorker{store: store, blob: blob, tools: tools, buckets: buckets}
}

func (w *DownloadTranscodeWorker) Kind() string { return queue.KindDownloadTranscode }

func (w *DownloadTranscodeWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.DownloadTranscodePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid download transcode payload: %w", err))
	}
	bitrate := p.BitrateKbps
	if bitrate <= 0 {
		bitrate = defaultDownloadBitrateKbps
	}

	dir, cleanup, err := scratchDir("download-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	version, _, src, err := fetchOriginal(ctx, w.store, w.blob, p.TrackVersionID, dir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 20)

	dst := filepath.Join(dir, "download.mp3")
	if err := w.tools.TranscodeMP3(ctx, src, dst, bitrate); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 70)

	key := fmt.Sprintf("downloads/%s/%s.mp3", version.TrackID, version.ID)
	info, err := w.blob.UploadFile(ctx, w.buckets.Assets, key, dst, "audio/mpeg")
	if err != nil {
		return nil, err
	}

	asset := &model.Asset{
		StorageBucket: w.buckets.Assets,
		StorageKey:    key,
		SizeBytes:     info.SizeBytes,
		MimeType:      "audio/mpeg",
		ContentHash:   info.ContentHash,
	}
	if err := w.store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 100)

	return &DownloadTranscodeResult{
		Success:   true,
		AssetID:   asset.ID,
		Bucket:    asset.StorageBucket,
		Key:       asset.StorageKey,
		SizeBytes: asset.SizeBytes,
	}, nil
}

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

// ArtworkWorker extracts embedded cover art. A file without artwork is a
// successful run, not a failure.
type ArtworkWorker struct {
	store   Store
	blob    BlobClient
	tools   media.Toolset
	buckets Buckets
}

// ArtworkResult reports whether artwork was found and where it went.
type ArtworkResult struct {
	Success          bool   `json:"success"`
	ArtworkFound     bool   `json:"artworkFound"`
	ArtworkAssetID   string `json:"artworkAssetId,omitempty"`
	ThumbnailAssetID string `json:"thumbnailAssetId,omitempty"`
}

func NewArtworkWorker(store Store, blob BlobClient, tools media.Toolset, buckets Buckets) *ArtworkWorker {
	return &ArtworkWorker{store: store, blob: blob, tools: tools, buckets: buckets}
}

func (w *ArtworkWorker) Kind() string { return queue.KindArtwork }

func (w *ArtworkWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.ArtworkPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid artwork payload: %w", err))
	}

	dir, cleanup, err := scratchDir("artwork-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	version, _, src, err := fetchOriginal(ctx, w.store, w.blob, p.TrackVersionID, dir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 20)

	fullPath := filepath.Join(dir, "artwork.jpg")
	thumbPath := filepath.Join(dir, "thumbnail.jpg")
	found, err := w.tools.ExtractArtwork(ctx, src, fullPath, thumbPath)
	if err != nil {
		return nil, err
	}
	if !found {
		job.ReportProgress(ctx, 100)
		return &ArtworkResult{Success: true, ArtworkFound: false}, nil
	}
	job.ReportProgress(ctx, 60)

	fullAsset, err := w.uploadAsset(ctx, fmt.Sprintf("artwork/%s/full.jpg", version.TrackID), fullPath)
	if err != nil {
		return nil, err
	}
	thumbAsset, err := w.uploadAsset(ctx, fmt.Sprintf("artwork/%s/thumb.jpg", version.TrackID), thumbPath)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 90)

	if err := w.store.UpdateTrackArtwork(ctx, version.TrackID, fullAsset.ID); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 100)

	return &ArtworkResult{
		Success:          true,
		ArtworkFound:     true,
		ArtworkAssetID:   fullAsset.ID,
		ThumbnailAssetID: thumbAsset.ID,
	}, nil
}

func (w *ArtworkWorker) uploadAsset(ctx context.Context, key, path string) (*model.Asset, error) {
	info, err := w.blob.UploadFile(ctx, w.buckets.Assets, key, path, "image/jpeg")
	if err != nil {
		return nil, err
	}
	asset := &model.Asset{
		StorageBucket: w.buckets.Assets,
		StorageKey:    key,
		SizeBytes:     info.SizeBytes,
		MimeType:      "image/jpeg",
		ContentHash:   info.ContentHash,
	}
	if err := w.store.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

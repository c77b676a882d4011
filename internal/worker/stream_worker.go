package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"github.com/soundpool/engine/internal/media"
	"github.com/soundpool/engine/internal/model"
	"github.com/soundpool/engine/internal/queue"
)

// StreamTranscodeWorker produces the segmented streaming rendition of an
// uploaded file and advances the track version to ready.
type StreamTranscodeWorker struct {
	store   Store
	blob    BlobClient
	tools   media.Toolset
	buckets Buckets
}

// StreamTranscodeResult is the structured result of a stream transcode.
type StreamTranscodeResult struct {
	Success         bool    `json:"success"`
	PlaylistAssetID string  `json:"playlistAssetId"`
	SegmentCount    int     `json:"segmentCount"`
	DurationSeconds float64 `json:"durationSeconds"`
}

func NewStreamTranscodeWorker(store Store, blob BlobClient, tools media.Toolset, buckets Buckets) *StreamTranscodeWorker {
	return &StreamTranscodeWorker{store: store, blob: blob, tools: tools, buckets: buckets}
}

func (w *StreamTranscodeWorker) Kind() string { return queue.KindStreamTranscode }

func (w *StreamTranscodeWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.StreamTranscodePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid stream transcode payload: %w", err))
	}

	dir, cleanup, err := scratchDir("stream-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	version, _, src, err := fetchOriginal(ctx, w.store, w.blob, p.TrackVersionID, dir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 10)

	transcode, err := w.store.UpsertTranscode(ctx, version.ID, p.Format)
	if err != nil {
		return nil, err
	}

	probed, err := w.tools.Probe(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := w.store.UpdateTrackVersionMetadata(ctx, version.ID, probed.DurationSeconds, probed.SampleRate, probed.Channels); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 20)

	outDir := filepath.Join(dir, "hls")
	if err := mkdir(outDir); err != nil {
		return nil, err
	}
	hls, err := w.tools.TranscodeHLS(ctx, src, outDir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 60)

	prefix := fmt.Sprintf("streams/%s/%s", version.TrackID, version.ID)
	for _, segment := range hls.SegmentPaths {
		key := fmt.Sprintf("%s/%s", prefix, filepath.Base(segment))
		if _, err := w.blob.UploadFile(ctx, w.buckets.Streams, key, segment, "video/mp2t"); err != nil {
			return nil, err
		}
	}
	playlistKey := fmt.Sprintf("%s/%s", prefix, filepath.Base(hls.PlaylistPath))
	info, err := w.blob.UploadFile(ctx, w.buckets.Streams, playlistKey, hls.PlaylistPath, "application/vnd.apple.mpegurl")
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 85)

	playlistAsset := &model.Asset{
		StorageBucket: w.buckets.Streams,
		StorageKey:    playlistKey,
		SizeBytes:     info.SizeBytes,
		MimeType:      "application/vnd.apple.mpegurl",
		ContentHash:   info.ContentHash,
	}
	if err := w.store.CreateAsset(ctx, playlistAsset); err != nil {
		return nil, err
	}
	if err := w.store.CompleteTranscode(ctx, transcode.ID, playlistAsset.ID, len(hls.SegmentPaths)); err != nil {
		return nil, err
	}
	if err := w.store.SetTrackVersionStatus(ctx, version.ID, model.VersionStatusReady, ""); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 100)

	return &StreamTranscodeResult{
		Success:         true,
		PlaylistAssetID: playlistAsset.ID,
		SegmentCount:    len(hls.SegmentPaths),
		DurationSeconds: probed.DurationSeconds,
	}, nil
}

// OnTerminalFailure surfaces a terminal transcode failure on the owning
// track version, keeping the error text for diagnostics.
func (w *StreamTranscodeWorker) OnTerminalFailure(ctx context.Context, payload json.RawMessage, errText string) {
	var p queue.StreamTranscodePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.TrackVersionID == "" {
		return
	}
	if err := w.store.SetTrackVersionStatus(ctx, p.TrackVersionID, model.VersionStatusFailed, errText); err != nil {
		log.Printf("Failed to mark version %s failed: %v", p.TrackVersionID, err)
	}
}

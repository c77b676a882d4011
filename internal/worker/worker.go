// Package worker implements the processing-stage processors that run on
// the job queue. Every stage follows the same shape: download the input
// asset into a scratch directory, invoke an external media tool, upload
// the outputs, persist metadata, and remove the scratch directory on
// every exit path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/soundpool/engine/internal/client"
	"github.com/soundpool/engine/internal/model"
	"github.com/soundpool/engine/internal/queue"
	"github.com/soundpool/engine/internal/store"
)

// Store is the data-access collaborator the stages depend on,
// implemented by *store.Store.
type Store interface {
	GetAsset(ctx context.Context, id string) (*model.Asset, error)
	CreateAsset(ctx context.Context, asset *model.Asset) error
	GetTrack(ctx context.Context, id string) (*model.Track, error)
	GetTrackVersion(ctx context.Context, id string) (*model.TrackVersion, error)
	UpdateTrackArtwork(ctx context.Context, trackID, assetID string) error
	UpdateTrackVersionMetadata(ctx context.Context, id string, durationSeconds float64, sampleRate, channels int) error
	UpdateTrackVersionLoudness(ctx context.Context, id string, integrated, truePeak, loudnessRange float64) error
	SetTrackVersionStatus(ctx context.Context, id string, status model.VersionStatus, errMsg string) error
	UpsertTranscode(ctx context.Context, versionID, format string) (*model.Transcode, error)
	CompleteTranscode(ctx context.Context, id, playlistAssetID string, segmentCount int) error
	CreateWaveform(ctx context.Context, wf *model.Waveform) error
	CreateFingerprint(ctx context.Context, fp *model.AudioFingerprint) error
	FindFingerprintMatch(ctx context.Context, fingerprint, excludeVersionID string) (*model.AudioFingerprint, error)
	CreateContentReport(ctx context.Context, report *model.ContentReport) error
}

// BlobClient is the blob-storage collaborator, implemented by
// *client.R2Client. Storage retries are the queue's responsibility.
type BlobClient interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	UploadFile(ctx context.Context, bucket, key, path, contentType string) (*client.UploadInfo, error)
}

// Buckets names the storage buckets the stages read and write.
type Buckets struct {
	Originals string
	Streams   string
	Assets    string
}

// scratchDir allocates a working directory and returns its cleanup
// function. Callers defer the cleanup immediately so the directory is
// removed on every exit path, including panics and timeouts.
func scratchDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("Failed to remove scratch dir %s: %v", dir, err)
		}
	}
	return dir, cleanup, nil
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// fetchOriginal loads a track version and downloads its original asset
// into dir. A missing version or asset is terminal: the queue's retry
// budget cannot make the row appear.
func fetchOriginal(ctx context.Context, st Store, blob BlobClient, versionID, dir string) (*model.TrackVersion, *model.Asset, string, error) {
	version, err := st.GetTrackVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, "", queue.Terminal(err)
		}
		return nil, nil, "", err
	}
	asset, err := st.GetAsset(ctx, version.OriginalAssetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, "", queue.Terminal(err)
		}
		return nil, nil, "", err
	}

	localPath := filepath.Join(dir, "original"+filepath.Ext(asset.StorageKey))
	if err := blob.Download(ctx, asset.StorageBucket, asset.StorageKey, localPath); err != nil {
		return nil, nil, "", err
	}
	return version, asset, localPath, nil
}

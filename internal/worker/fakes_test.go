package worker

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/soundpool/engine/internal/client"
	"github.com/soundpool/engine/internal/media"
	"github.com/soundpool/engine/internal/model"
	"github.com/soundpool/engine/internal/store"
)

var testBuckets = Buckets{Originals: "originals", Streams: "streams", Assets: "assets"}

type fakeStore struct {
	assets   map[string]*model.Asset
	tracks   map[string]*model.Track
	versions map[string]*model.TrackVersion

	// seeded fingerprints visible to FindFingerprintMatch
	existingPrints []*model.AudioFingerprint

	createdAssets []*model.Asset
	waveforms     []*model.Waveform
	fingerprints  []*model.AudioFingerprint
	reports       []*model.ContentReport
	transcodes    map[string]*model.Transcode

	artwork  map[string]string
	statuses map[string]model.VersionStatus
	errMsgs  map[string]string
	loudness map[string][3]float64
	metadata map[string]float64

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets:     map[string]*model.Asset{},
		tracks:     map[string]*model.Track{},
		versions:   map[string]*model.TrackVersion{},
		transcodes: map[string]*model.Transcode{},
		artwork:    map[string]string{},
		statuses:   map[string]model.VersionStatus{},
		errMsgs:    map[string]string{},
		loudness:   map[string][3]float64{},
		metadata:   map[string]float64{},
	}
}

// seedVersion installs a track, its version and its original asset.
func (f *fakeStore) seedVersion() *model.TrackVersion {
	f.tracks["track-1"] = &model.Track{ID: "track-1", UserID: "user-1", Title: "Demo"}
	f.assets["asset-1"] = &model.Asset{
		ID:            "asset-1",
		StorageBucket: "originals",
		StorageKey:    "uploads/track-1/original.wav",
	}
	v := &model.TrackVersion{
		ID:              "version-1",
		TrackID:         "track-1",
		OriginalAssetID: "asset-1",
		Status:          model.VersionStatusPending,
	}
	f.versions[v.ID] = v
	return v
}

func (f *fakeStore) GetAsset(ctx context.Context, id string) (*model.Asset, error) {
	if a, ok := f.assets[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("asset %s: %w", id, store.ErrNotFound)
}

func (f *fakeStore) CreateAsset(ctx context.Context, asset *model.Asset) error {
	f.nextID++
	asset.ID = fmt.Sprintf("created-asset-%d", f.nextID)
	f.assets[asset.ID] = asset
	f.createdAssets = append(f.createdAssets, asset)
	return nil
}

func (f *fakeStore) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("track %s: %w", id, store.ErrNotFound)
}

func (f *fakeStore) GetTrackVersion(ctx context.Context, id string) (*model.TrackVersion, error) {
	if v, ok := f.versions[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("track version %s: %w", id, store.ErrNotFound)
}

func (f *fakeStore) UpdateTrackArtwork(ctx context.Context, trackID, assetID string) error {
	f.artwork[trackID] = assetID
	return nil
}

func (f *fakeStore) UpdateTrackVersionMetadata(ctx context.Context, id string, durationSeconds float64, sampleRate, channels int) error {
	f.metadata[id] = durationSeconds
	return nil
}

func (f *fakeStore) UpdateTrackVersionLoudness(ctx context.Context, id string, integrated, truePeak, loudnessRange float64) error {
	f.loudness[id] = [3]float64{integrated, truePeak, loudnessRange}
	return nil
}

func (f *fakeStore) SetTrackVersionStatus(ctx context.Context, id string, status model.VersionStatus, errMsg string) error {
	f.statuses[id] = status
	f.errMsgs[id] = errMsg
	return nil
}

func (f *fakeStore) UpsertTranscode(ctx context.Context, versionID, format string) (*model.Transcode, error) {
	key := versionID + "/" + format
	if tr, ok := f.transcodes[key]; ok {
		return tr, nil
	}
	tr := &model.Transcode{
		ID:             "transcode-" + versionID,
		TrackVersionID: versionID,
		Format:         format,
		Status:         model.VersionStatusPending,
	}
	f.transcodes[key] = tr
	return tr, nil
}

func (f *fakeStore) CompleteTranscode(ctx context.Context, id, playlistAssetID string, segmentCount int) error {
	for _, tr := range f.transcodes {
		if tr.ID == id {
			tr.Status = model.VersionStatusReady
			tr.PlaylistAssetID = &playlistAssetID
			tr.SegmentCount = segmentCount
			return nil
		}
	}
	return fmt.Errorf("transcode %s: %w", id, store.ErrNotFound)
}

func (f *fakeStore) CreateWaveform(ctx context.Context, wf *model.Waveform) error {
	wf.ID = "waveform-1"
	f.waveforms = append(f.waveforms, wf)
	return nil
}

func (f *fakeStore) CreateFingerprint(ctx context.Context, fp *model.AudioFingerprint) error {
	f.nextID++
	fp.ID = fmt.Sprintf("fingerprint-%d", f.nextID)
	f.fingerprints = append(f.fingerprints, fp)
	return nil
}

func (f *fakeStore) FindFingerprintMatch(ctx context.Context, fingerprint, excludeVersionID string) (*model.AudioFingerprint, error) {
	for _, fp := range f.existingPrints {
		if fp.Fingerprint == fingerprint && fp.TrackVersionID != excludeVersionID {
			return fp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateContentReport(ctx context.Context, report *model.ContentReport) error {
	f.reports = append(f.reports, report)
	return nil
}

type fakeBlob struct {
	uploads      map[string]string // "bucket/key" -> content type
	failDownload bool
	failUploadOn string // fail uploads whose key contains this
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{uploads: map[string]string{}}
}

func (b *fakeBlob) Download(ctx context.Context, bucket, key, localPath string) error {
	if b.failDownload {
		return fmt.Errorf("download %s/%s: connection reset", bucket, key)
	}
	return os.WriteFile(localPath, []byte("audio-bytes"), 0o644)
}

func (b *fakeBlob) UploadFile(ctx context.Context, bucket, key, path, contentType string) (*client.UploadInfo, error) {
	if b.failUploadOn != "" && strings.Contains(key, b.failUploadOn) {
		return nil, fmt.Errorf("upload %s/%s: connection reset", bucket, key)
	}
	b.uploads[bucket+"/"+key] = contentType
	return &client.UploadInfo{SizeBytes: 11, ContentHash: "deadbeef"}, nil
}

type fakeTools struct {
	probe       *media.ProbeResult
	hls         *media.HLSOutput
	loudness    *media.LoudnessResult
	fingerprint *media.FingerprintResult

	artworkFound bool
	peaksErr     error
	hlsErr       error

	mp3Bitrates []int
}

func (f *fakeTools) Probe(ctx context.Context, path string) (*media.ProbeResult, error) {
	if f.probe != nil {
		return f.probe, nil
	}
	return &media.ProbeResult{DurationSeconds: 180.5, SampleRate: 44100, Channels: 2, CodecName: "flac"}, nil
}

func (f *fakeTools) TranscodeHLS(ctx context.Context, src, outDir string) (*media.HLSOutput, error) {
	if f.hlsErr != nil {
		return nil, f.hlsErr
	}
	if f.hls != nil {
		return f.hls, nil
	}
	return &media.HLSOutput{
		PlaylistPath: outDir + "/playlist.m3u8",
		SegmentPaths: []string{
			outDir + "/segment_00000.ts",
			outDir + "/segment_00001.ts",
			outDir + "/segment_00002.ts",
		},
	}, nil
}

func (f *fakeTools) TranscodeMP3(ctx context.Context, src, dst string, bitrateKbps int) error {
	f.mp3Bitrates = append(f.mp3Bitrates, bitrateKbps)
	return nil
}

func (f *fakeTools) MeasureLoudness(ctx context.Context, path string) (*media.LoudnessResult, error) {
	if f.loudness != nil {
		return f.loudness, nil
	}
	return &media.LoudnessResult{IntegratedLUFS: -14.5, TruePeakDb: -0.3, LoudnessRange: 6.2}, nil
}

func (f *fakeTools) GeneratePeaks(ctx context.Context, src, jsonOut, pngOut string) error {
	return f.peaksErr
}

func (f *fakeTools) ExtractArtwork(ctx context.Context, src, fullOut, thumbOut string) (bool, error) {
	return f.artworkFound, nil
}

func (f *fakeTools) Fingerprint(ctx context.Context, path string) (*media.FingerprintResult, error) {
	if f.fingerprint != nil {
		return f.fingerprint, nil
	}
	return &media.FingerprintResult{Fingerprint: "AQAAjEmiJFGS", DurationSeconds: 180.5}, nil
}

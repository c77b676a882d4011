package worker

import (
	"context"
	"testing"

	"github.com/soundpool/engine/internal/queue"
)

func TestArtworkWorkerNoEmbeddedArt(t *testing.T) {
	fs := newFakeStore()
	fs.seedVersion()
	blob := newFakeBlob()
	w := NewArtworkWorker(fs, blob, &fakeTools{artworkFound: false}, testBuckets)

	result, err := w.Process(context.Background(), testJob(),
		mustPayload(t, queue.ArtworkPayload{TrackVersionID: "version-1"}))
	if err != nil {
		t.Fatalf("a file without artwork must succeed, got %v", err)
	}

	got := result.(*ArtworkResult)
	if !got.Success || got.ArtworkFound {
		t.Errorf("result = %+v, want success without artwork", got)
	}
	if len(blob.uploads) != 0 {
		t.Errorf("uploads = %v, want none", blob.uploads)
	}
	if len(fs.artwork) != 0 {
		t.Errorf("track artwork updated: %v", fs.artwork)
	}
}

func TestArtworkWorkerExtracts(t *testing.T) {
	fs := newFakeStore()
	fs.seedVersion()
	blob := newFakeBlob()
	w := NewArtworkWorker(fs, blob, &fakeTools{artworkFound: true}, testBuckets)

	result, err := w.Process(context.Background(), testJob(),
		mustPayload(t, queue.ArtworkPayload{TrackVersionID: "version-1"}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := result.(*ArtworkResult)
	if !got.ArtworkFound || got.ArtworkAssetID == "" || got.ThumbnailAssetID == "" {
		t.Fatalf("result = %+v, want both artwork assets", got)
	}

	if fs.artwork["track-1"] != got.ArtworkAssetID {
		t.Errorf("track artwork = %q, want the full-size asset %q", fs.artwork["track-1"], got.ArtworkAssetID)
	}
	if ct := blob.uploads["assets/artwork/track-1/full.jpg"]; ct != "image/jpeg" {
		t.Errorf("full upload content type = %q", ct)
	}
	if ct := blob.uploads["assets/artwork/track-1/thumb.jpg"]; ct != "image/jpeg" {
		t.Errorf("thumb upload content type = %q", ct)
	}
}

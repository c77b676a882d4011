package worker

import (
	"context"
	"testing"

	"github.com/soundpool/engine/internal/queue"
)

func TestWaveformWorker(t *testing.T) {
	fs := newFakeStore()
	fs.seedVersion()
	blob := newFakeBlob()
	w := NewWaveformWorker(fs, blob, &fakeTools{}, testBuckets)

	result, err := w.Process(context.Background(), testJob(),
		mustPayload(t, queue.WaveformPayload{TrackVersionID: "version-1"}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := result.(*WaveformResult)
	if !got.Success || got.PeaksAssetID == "" || got.PreviewAssetID == "" {
		t.Errorf("result = %+v, want both asset ids set", got)
	}

	if len(fs.waveforms) != 1 {
		t.Fatalf("waveform rows = %d, want 1", len(fs.waveforms))
	}
	wf := fs.waveforms[0]
	if wf.TrackVersionID != "version-1" {
		t.Errorf("TrackVersionID = %q", wf.TrackVersionID)
	}
	if wf.PeaksAssetID != got.PeaksAssetID || wf.PreviewAssetID != got.PreviewAssetID {
		t.Errorf("waveform row %+v does not reference the result assets %+v", wf, got)
	}

	if ct := blob.uploads["assets/waveforms/version-1/peaks.json"]; ct != "application/json" {
		t.Errorf("peaks upload content type = %q", ct)
	}
	if ct := blob.uploads["assets/waveforms/version-1/preview.png"]; ct != "image/png" {
		t.Errorf("preview upload content type = %q", ct)
	}
}

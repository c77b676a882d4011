package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/soundpool/engine/internal/queue"
)

func mustPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return b
}

func testJob() *queue.JobHandle {
	return &queue.JobHandle{ID: "job-1"}
}

// Every stage must remove its scratch directory whether it succeeds or
// the tool fails mid-run.
func TestScratchDirRemoved(t *testing.T) {
	cases := []struct {
		name    string
		tools   *fakeTools
		wantErr bool
	}{
		{name: "success", tools: &fakeTools{}},
		{name: "tool failure", tools: &fakeTools{peaksErr: errors.New("audiowaveform: exit status 1")}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmp := t.TempDir()
			t.Setenv("TMPDIR", tmp)

			fs := newFakeStore()
			fs.seedVersion()
			w := NewWaveformWorker(fs, newFakeBlob(), tc.tools, testBuckets)

			_, err := w.Process(context.Background(), testJob(),
				mustPayload(t, queue.WaveformPayload{TrackVersionID: "version-1"}))
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}

			entries, err := os.ReadDir(tmp)
			if err != nil {
				t.Fatalf("read temp dir: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("scratch dir leaked: %v", entries)
			}
		})
	}
}

func TestMissingVersionIsTerminal(t *testing.T) {
	fs := newFakeStore() // nothing seeded
	w := NewWaveformWorker(fs, newFakeBlob(), &fakeTools{}, testBuckets)

	_, err := w.Process(context.Background(), testJob(),
		mustPayload(t, queue.WaveformPayload{TrackVersionID: "ghost"}))
	if err == nil {
		t.Fatal("expected error for missing version")
	}
	if !errors.Is(err, queue.ErrTerminal) {
		t.Errorf("err = %v, want terminal", err)
	}
	if len(fs.waveforms) != 0 {
		t.Error("no waveform row may be created for a missing version")
	}
}

func TestMissingAssetIsTerminal(t *testing.T) {
	fs := newFakeStore()
	v := fs.seedVersion()
	delete(fs.assets, v.OriginalAssetID)
	w := NewWaveformWorker(fs, newFakeBlob(), &fakeTools{}, testBuckets)

	_, err := w.Process(context.Background(), testJob(),
		mustPayload(t, queue.WaveformPayload{TrackVersionID: v.ID}))
	if !errors.Is(err, queue.ErrTerminal) {
		t.Fatalf("err = %v, want terminal", err)
	}
	if len(fs.waveforms) != 0 {
		t.Error("no waveform row may be created for a missing asset")
	}
}

func TestDownloadFailureIsRetryable(t *testing.T) {
	fs := newFakeStore()
	fs.seedVersion()
	blob := newFakeBlob()
	blob.failDownload = true
	w := NewWaveformWorker(fs, blob, &fakeTools{}, testBuckets)

	_, err := w.Process(context.Background(), testJob(),
		mustPayload(t, queue.WaveformPayload{TrackVersionID: "version-1"}))
	if err == nil {
		t.Fatal("expected error for failed download")
	}
	if errors.Is(err, queue.ErrTerminal) {
		t.Errorf("storage failure must stay retryable, got terminal: %v", err)
	}
}

func TestInvalidPayloadIsTerminal(t *testing.T) {
	w := NewWaveformWorker(newFakeStore(), newFakeBlob(), &fakeTools{}, testBuckets)
	_, err := w.Process(context.Background(), testJob(), json.RawMessage(`{`))
	if !errors.Is(err, queue.ErrTerminal) {
		t.Fatalf("err = %v, want terminal", err)
	}
}

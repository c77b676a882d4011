package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soundpool/engine/internal/media"
	"github.com/soundpool/engine/internal/queue"
)

// LoudnessWorker measures EBU R128 loudness and stores it on the track
// version. Players use the integrated value for playback normalization.
type LoudnessWorker struct {
	store Store
	blob  BlobClient
	tools media.Toolset
}

// LoudnessResult carries the measured values.
type LoudnessResult struct {
	Success        bool    `json:"success"`
	IntegratedLUFS float64 `json:"integratedLufs"`
	TruePeakDb     float64 `json:"truePeakDb"`
	LoudnessRange  float64 `json:"loudnessRange"`
}

func NewLoudnessWorker(store Store, blob BlobClient, tools media.Toolset) *LoudnessWorker {
	return &LoudnessWorker{store: store, blob: blob, tools: tools}
}

func (w *LoudnessWorker) Kind() string { return queue.KindLoudness }

func (w *LoudnessWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.LoudnessPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid loudness payload: %w", err))
	}

	dir, cleanup, err := scratchDir("loudness-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	version, _, src, err := fetchOriginal(ctx, w.store, w.blob, p.TrackVersionID, dir)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 30)

	measured, err := w.tools.MeasureLoudness(ctx, src)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 80)

	if err := w.store.UpdateTrackVersionLoudness(ctx, version.ID, measured.IntegratedLUFS, measured.TruePeakDb, measured.LoudnessRange); err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 100)

	return &LoudnessResult{
		Success:        true,
		IntegratedLUFS: measured.IntegratedLUFS,
		TruePeakDb:     measured.TruePeakDb,
		LoudnessRange:  measured.LoudnessRange,
	}, nil
}

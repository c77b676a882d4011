package queue

import "encoding/json"

// Job kinds. One kind maps to exactly one queue and one processor.
const (
	KindStreamTranscode   = "audio:transcode:stream"
	KindDownloadTranscode = "audio:transcode:download"
	KindWaveform          = "audio:waveform"
	KindLoudness          = "audio:loudness"
	KindArtwork           = "audio:artwork"
	KindFingerprint       = "audio:fingerprint"
	KindDistribution      = "revenue:distribute"
)

// Queue names. Each queue has its own worker pool and concurrency limit.
const (
	QueueStream       = "stream"
	QueueDownload     = "download"
	QueueWaveform     = "waveform"
	QueueLoudness     = "loudness"
	QueueArtwork      = "artwork"
	QueueFingerprint  = "fingerprint"
	QueueDistribution = "distribution"
)

var kindQueues = map[string]string{
	KindStreamTranscode:   QueueStream,
	KindDownloadTranscode: QueueDownload,
	KindWaveform:          QueueWaveform,
	KindLoudness:          QueueLoudness,
	KindArtwork:           QueueArtwork,
	KindFingerprint:       QueueFingerprint,
	KindDistribution:      QueueDistribution,
}

// QueueForKind resolves the queue a job kind is dispatched on.
func QueueForKind(kind string) (string, bool) {
	q, ok := kindQueues[kind]
	return q, ok
}

// StreamTranscodePayload requests the segmented streaming rendition.
type StreamTranscodePayload struct {
	TrackVersionID string `json:"trackVersionId" validate:"required"`
	Format         string `json:"format" validate:"required,oneof=hls"`
}

// DownloadTranscodePayload requests a single lossy file for download.
type DownloadTranscodePayload struct {
	TrackVersionID string `json:"trackVersionId" validate:"required"`
	BitrateKbps    int    `json:"bitrateKbps,omitempty" validate:"omitempty,min=64,max=320"`
}

// WaveformPayload requests peak extraction.
type WaveformPayload struct {
	TrackVersionID string `json:"trackVersionId" validate:"required"`
}

// LoudnessPayload requests loudness analysis.
type LoudnessPayload struct {
	TrackVersionID string `json:"trackVersionId" validate:"required"`
}

// ArtworkPayload requests embedded artwork extraction.
type ArtworkPayload struct {
	TrackVersionID string `json:"trackVersionId" validate:"required"`
}

// FingerprintPayload requests content fingerprinting.
type FingerprintPayload struct {
	TrackVersionID string `json:"trackVersionId" validate:"required"`
}

// DistributionPayload requests a revenue distribution run for one
// calendar period.
type DistributionPayload struct {
	Period string `json:"period" validate:"required,len=7"`
}

// envelope is the wire shape of every asynq task: the job record id, the
// backoff the retry delay function should apply, and the stage payload.
type envelope struct {
	JobID   string          `json:"jobId"`
	Backoff BackoffSpec     `json:"backoff"`
	Payload json.RawMessage `json:"payload"`
}

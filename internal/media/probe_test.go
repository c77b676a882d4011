package media

import "testing"

const probeWithArt = `{
  "streams": [
    {
      "codec_name": "flac",
      "codec_type": "audio",
      "sample_rate": "44100",
      "channels": 2,
      "disposition": {"attached_pic": 0}
    },
    {
      "codec_name": "mjpeg",
      "codec_type": "video",
      "disposition": {"attached_pic": 1}
    }
  ],
  "format": {
    "duration": "204.371519",
    "format_name": "flac"
  }
}`

const probeAudioOnly = `{
  "streams": [
    {
      "codec_name": "pcm_s16le",
      "codec_type": "audio",
      "sample_rate": "48000",
      "channels": 1
    }
  ],
  "format": {
    "duration": "12.5",
    "format_name": "wav"
  }
}`

func TestParseProbeOutput(t *testing.T) {
	result, err := parseProbeOutput([]byte(probeWithArt))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if result.CodecName != "flac" {
		t.Errorf("CodecName = %q, want flac", result.CodecName)
	}
	if result.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", result.SampleRate)
	}
	if result.Channels != 2 {
		t.Errorf("Channels = %d, want 2", result.Channels)
	}
	if result.DurationSeconds != 204.371519 {
		t.Errorf("DurationSeconds = %v, want 204.371519", result.DurationSeconds)
	}
	if !result.HasEmbeddedArt {
		t.Error("expected attached_pic stream to flag embedded art")
	}
}

func TestParseProbeOutputNoArt(t *testing.T) {
	result, err := parseProbeOutput([]byte(probeAudioOnly))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if result.HasEmbeddedArt {
		t.Error("audio-only file must not report embedded art")
	}
	if result.FormatName != "wav" {
		t.Errorf("FormatName = %q, want wav", result.FormatName)
	}
}

func TestParseProbeOutputImageCodecWithoutDisposition(t *testing.T) {
	// Some containers carry cover art as a plain png stream without the
	// attached_pic disposition.
	input := `{"streams":[{"codec_name":"png","codec_type":"video"}],"format":{}}`
	result, err := parseProbeOutput([]byte(input))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if !result.HasEmbeddedArt {
		t.Error("expected image codec stream to flag embedded art")
	}
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	if _, err := parseProbeOutput([]byte("ffprobe: error")); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}

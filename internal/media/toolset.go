// Package media wraps the external binaries the processing stages invoke:
// ffmpeg, ffprobe, audiowaveform and fpcalc. Every wrapper preserves the
// tool's combined output in the returned error so queue diagnostics keep
// the original failure text.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/soundpool/engine/internal/config"
)

// Toolset is the interface the stage processors depend on. Tests swap in
// a fake; production uses Tools.
type Toolset interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	TranscodeHLS(ctx context.Context, src, outDir string) (*HLSOutput, error)
	TranscodeMP3(ctx context.Context, src, dst string, bitrateKbps int) error
	MeasureLoudness(ctx context.Context, path string) (*LoudnessResult, error)
	GeneratePeaks(ctx context.Context, src, jsonOut, pngOut string) error
	ExtractArtwork(ctx context.Context, src, fullOut, thumbOut string) (bool, error)
	Fingerprint(ctx context.Context, path string) (*FingerprintResult, error)
}

// Tools invokes the configured binaries.
type Tools struct {
	cfg config.ToolsConfig
}

// NewTools builds a Toolset from the configured binary paths.
func NewTools(cfg config.ToolsConfig) *Tools {
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.FFprobe == "" {
		cfg.FFprobe = "ffprobe"
	}
	if cfg.AudioWaveform == "" {
		cfg.AudioWaveform = "audiowaveform"
	}
	if cfg.FPCalc == "" {
		cfg.FPCalc = "fpcalc"
	}
	return &Tools{cfg: cfg}
}

// runTool executes a binary and returns its combined output. Non-zero exit
// wraps the output text into the error.
func runTool(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(binary), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

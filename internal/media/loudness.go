package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// LoudnessResult holds the EBU R128 measurements of a file.
type LoudnessResult struct {
	IntegratedLUFS float64
	TruePeakDb     float64
	LoudnessRange  float64
}

// MeasureLoudness runs the file through ffmpeg's ebur128 filter and parses
// the summary block it prints at the end of the analysis.
func (t *Tools) MeasureLoudness(ctx context.Context, path string) (*LoudnessResult, error) {
	// The filter writes its summary to stderr; runTool captures both.
	// The null muxer discards the audio itself.
	output, err := runTool(ctx, t.cfg.FFmpeg,
		"-hide_banner", "-nostats",
		"-i", path,
		"-af", "ebur128=peak=true",
		"-f", "null", "-")
	if err != nil {
		return nil, err
	}
	return parseEBUR128(string(output))
}

// parseEBUR128 extracts I, LRA and true peak from the ebur128 summary:
//
//	  Integrated loudness:
//	    I:         -14.5 LUFS
//	  Loudness range:
//	    LRA:         6.2 LU
//	  True peak:
//	    Peak:       -0.3 dBFS
func parseEBUR128(output string) (*LoudnessResult, error) {
	idx := strings.LastIndex(output, "Summary:")
	if idx < 0 {
		return nil, fmt.Errorf("ebur128 summary missing from ffmpeg output")
	}

	result := &LoudnessResult{}
	seen := 0
	for _, line := range strings.Split(output[idx:], "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "I:":
			result.IntegratedLUFS = value
			seen++
		case "LRA:":
			result.LoudnessRange = value
			seen++
		case "Peak:":
			result.TruePeakDb = value
			seen++
		}
	}
	if seen < 3 {
		return nil, fmt.Errorf("ebur128 summary incomplete")
	}
	return result, nil
}

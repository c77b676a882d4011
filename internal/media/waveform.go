package media

import (
	"context"
	"strconv"
)

// Peak extraction settings. 8-bit peaks keep the JSON small enough to
// serve directly to players.
const (
	peaksPerSecond = 20
	peaksBits      = "8"
	previewWidth   = "1800"
	previewHeight  = "280"
)

// GeneratePeaks runs audiowaveform twice: once for the JSON peak data the
// player renders, once for the PNG preview image.
func (t *Tools) GeneratePeaks(ctx context.Context, src, jsonOut, pngOut string) error {
	if _, err := runTool(ctx, t.cfg.AudioWaveform,
		"-i", src,
		"-o", jsonOut,
		"--pixels-per-second", strconv.Itoa(peaksPerSecond),
		"--bits", peaksBits); err != nil {
		return err
	}
	_, err := runTool(ctx, t.cfg.AudioWaveform,
		"-i", src,
		"-o", pngOut,
		"--width", previewWidth,
		"--height", previewHeight,
		"--no-axis-labels")
	return err
}

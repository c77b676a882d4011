package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProbeResult is the technical metadata extracted from a media file.
type ProbeResult struct {
	DurationSeconds float64
	SampleRate      int
	Channels        int
	CodecName       string
	FormatName      string
	HasEmbeddedArt  bool
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecName   string             `json:"codec_name"`
	CodecType   string             `json:"codec_type"`
	SampleRate  string             `json:"sample_rate"`
	Channels    int                `json:"channels"`
	Disposition ffprobeDisposition `json:"disposition"`
}

type ffprobeDisposition struct {
	AttachedPic int `json:"attached_pic"`
}

type ffprobeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Probe executes ffprobe against the provided path and decodes the JSON
// response.
func (t *Tools) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	output, err := runTool(ctx, t.cfg.FFprobe,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	if err != nil {
		return nil, err
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (*ProbeResult, error) {
	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}

	result := &ProbeResult{
		FormatName: probed.Format.FormatName,
	}
	if probed.Format.Duration != "" {
		if d, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64); err == nil {
			result.DurationSeconds = d
		}
	}
	for _, stream := range probed.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "audio":
			if result.CodecName == "" {
				result.CodecName = stream.CodecName
				result.Channels = stream.Channels
				if rate, err := strconv.Atoi(strings.TrimSpace(stream.SampleRate)); err == nil {
					result.SampleRate = rate
				}
			}
		case "video":
			// Embedded artwork shows up as a video stream, usually with
			// the attached_pic disposition.
			if stream.Disposition.AttachedPic == 1 || isImageCodec(stream.CodecName) {
				result.HasEmbeddedArt = true
			}
		}
	}
	return result, nil
}

func isImageCodec(codec string) bool {
	switch strings.ToLower(codec) {
	case "mjpeg", "png", "bmp", "gif":
		return true
	}
	return false
}

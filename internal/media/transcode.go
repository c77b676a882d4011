package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// HLSOutput lists the files produced by a streaming transcode.
type HLSOutput struct {
	PlaylistPath string
	SegmentPaths []string
}

const hlsSegmentSeconds = 10

// TranscodeHLS produces a segmented AAC HLS rendition in outDir.
func (t *Tools) TranscodeHLS(ctx context.Context, src, outDir string) (*HLSOutput, error) {
	playlist := filepath.Join(outDir, "playlist.m3u8")
	segmentPattern := filepath.Join(outDir, "segment_%05d.ts")

	_, err := runTool(ctx, t.cfg.FFmpeg,
		"-hide_banner", "-y",
		"-i", src,
		"-vn",
		"-c:a", "aac",
		"-b:a", "256k",
		"-f", "hls",
		"-hls_time", strconv.Itoa(hlsSegmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", segmentPattern,
		playlist)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read hls output: %w", err)
	}
	var segments []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".ts") {
			segments = append(segments, filepath.Join(outDir, entry.Name()))
		}
	}
	sort.Strings(segments)
	if len(segments) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no hls segments")
	}
	return &HLSOutput{
		PlaylistPath: playlist,
		SegmentPaths: segments,
	}, nil
}

// TranscodeMP3 produces a single MP3 file at a fixed bitrate.
func (t *Tools) TranscodeMP3(ctx context.Context, src, dst string, bitrateKbps int) error {
	if bitrateKbps <= 0 {
		bitrateKbps = 320
	}
	_, err := runTool(ctx, t.cfg.FFmpeg,
		"-hide_banner", "-y",
		"-i", src,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		dst)
	return err
}

package media

import (
	"context"
)

const thumbnailSize = "300"

// ExtractArtwork pulls embedded artwork out of an audio file and writes a
// full-size JPEG plus a scaled thumbnail. Returns false when the file
// carries no artwork; that is not an error.
func (t *Tools) ExtractArtwork(ctx context.Context, src, fullOut, thumbOut string) (bool, error) {
	probed, err := t.Probe(ctx, src)
	if err != nil {
		return false, err
	}
	if !probed.HasEmbeddedArt {
		return false, nil
	}

	if _, err := runTool(ctx, t.cfg.FFmpeg,
		"-hide_banner", "-y",
		"-i", src,
		"-map", "0:v:0",
		"-frames:v", "1",
		fullOut); err != nil {
		return false, err
	}

	if _, err := runTool(ctx, t.cfg.FFmpeg,
		"-hide_banner", "-y",
		"-i", fullOut,
		"-vf", "scale="+thumbnailSize+":"+thumbnailSize+":force_original_aspect_ratio=decrease",
		thumbOut); err != nil {
		return false, err
	}
	return true, nil
}

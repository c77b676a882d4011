package media

import (
	"context"
	"encoding/json"
	"fmt"
)

// FingerprintResult is the chromaprint fingerprint of a file.
type FingerprintResult struct {
	Fingerprint     string  `json:"fingerprint"`
	DurationSeconds float64 `json:"duration"`
}

// Fingerprint runs fpcalc and decodes its JSON output.
func (t *Tools) Fingerprint(ctx context.Context, path string) (*FingerprintResult, error) {
	output, err := runTool(ctx, t.cfg.FPCalc, "-json", path)
	if err != nil {
		return nil, err
	}

	var result FingerprintResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("fpcalc parse: %w", err)
	}
	if result.Fingerprint == "" {
		return nil, fmt.Errorf("fpcalc returned an empty fingerprint")
	}
	return &result, nil
}

package extract

import (
	"context"
	"log/slog"

	"github.com/berth-dev/cutover/internal/simulation"
)

// Fallback tries Primary and, only when it fails, Degraded. It exists so
// that degraded extraction is an explicit, configured choice; wiring it is
// opt-in.
type Fallback struct {
	Primary  simulation.Extractor
	Degraded simulation.Extractor
	Logger   *slog.Logger
}

// Extract implements simulation.Extractor.
func (f Fallback) Extract(ctx context.Context, text string) (simulation.Extraction, error) {
	ext, err := f.Primary.Extract(ctx, text)
	if err == nil {
		return ext, nil
	}
	if ctx.Err() != nil {
		return simulation.Extraction{}, err
	}

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("primary extraction failed, using degraded extractor", "error", err)
	return f.Degraded.Extract(ctx, text)
}

// Package export archives the verification result log to object storage
// for long-term audit retention.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/acgs-labs/charter/pkg/store"
)

// ArchiveStore persists an archive blob and returns its content hash,
// which doubles as the storage key.
type ArchiveStore interface {
	Store(ctx context.Context, data []byte) (string, error)
}

// Exporter snapshots a result log into an archive store as JSON lines.
type Exporter struct {
	log    store.ResultLog
	sink   ArchiveStore
	logger *slog.Logger
}

// NewExporter wires a result log to an archive sink.
func NewExporter(log store.ResultLog, sink ArchiveStore) *Exporter {
	return &Exporter{
		log:    log,
		sink:   sink,
		logger: slog.Default().With("component", "export"),
	}
}

// Export serializes the full history and stores it. Returns the archive's
// content hash and the number of results exported.
func (e *Exporter) Export(ctx context.Context) (string, int, error) {
	results, err := e.log.List(ctx, 0)
	if err != nil {
		return "", 0, fmt.Errorf("result log read failed: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range results {
		if err := enc.Encode(&results[i]); err != nil {
			return "", 0, fmt.Errorf("result encode failed: %w", err)
		}
	}

	hash, err := e.sink.Store(ctx, buf.Bytes())
	if err != nil {
		return "", 0, fmt.Errorf("archive store failed: %w", err)
	}
	e.logger.Info("result log archived", "hash", hash, "results", len(results))
	return hash, len(results), nil
}

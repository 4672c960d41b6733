package export

import (
	"context"
	"encoding/json"
	"io"
)

// JSONExporter exports snapshots to JSON.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes snap to w as a single JSON document.
func (e *JSONExporter) Export(ctx context.Context, snap Snapshot, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := e.Marshal(snap)
	if err != nil {
		return NewExportError("json", len(snap.Services), err)
	}

	if _, err := w.Write(data); err != nil {
		return NewExportError("json", len(snap.Services), err)
	}
	return nil
}

// Marshal encodes snap.
func (e *JSONExporter) Marshal(snap Snapshot) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(snap, "", "  ")
	}
	return json.Marshal(snap)
}

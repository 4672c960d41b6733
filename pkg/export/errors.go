package export

import "fmt"

// ExportError represents an error during export.
type ExportError struct {
	Format       string // "csv", "csv-detailed" or "json"
	ServiceCount int    // Number of services being exported
	Cause        error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, service_count=%d]: %v", e.Format, e.ServiceCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, serviceCount int, cause error) *ExportError {
	return &ExportError{
		Format:       format,
		ServiceCount: serviceCount,
		Cause:        cause,
	}
}

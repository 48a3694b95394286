package models

// BatchItemResult reports the outcome of one file in a batch lock/unlock call.
// A failure of one item never aborts the rest of the batch.
type BatchItemResult struct {
	// Name is the base name of the input file.
	Name    string `json:"name"`
	Success bool   `json:"success"`
	// Message is "Locked", "Unlocked: <output>" or the error text.
	Message string `json:"message"`
	// OutputPath is the file written on success.
	OutputPath string `json:"output_path,omitempty"`
	// Err is the failure behind Message, kept for errors.Is checks.
	Err error `json:"-"`
}

// CompressionMode selects the zstd level used for a file.
type CompressionMode string

const (
	// CompressionAuto uses a fast level for already-compressed formats and the
	// default level otherwise.
	CompressionAuto CompressionMode = "auto"
	// CompressionStore uses the fastest level.
	CompressionStore CompressionMode = "store"
	// CompressionExtreme trades speed for ratio.
	CompressionExtreme CompressionMode = "extreme"
)

// Valid reports whether m is a known mode.
func (m CompressionMode) Valid() bool {
	switch m {
	case CompressionAuto, CompressionStore, CompressionExtreme:
		return true
	}
	return false
}

package config

const (
	// MaxTitleLength is the maximum length for document titles.
	// Limited to 500 to fit in PostgreSQL VARCHAR(500); titles beyond
	// that are a sign of content pasted into the wrong field.
	MaxTitleLength = 500

	// MaxLogFiles is how many rotated server log files to keep when
	// file logging is enabled.
	MaxLogFiles = 10
)

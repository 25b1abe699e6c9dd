package config

const (
	// MaxTitleLength is the maximum length for document and folder titles.
	// Limited to 255 to fit an index entry comfortably.
	MaxTitleLength = 255

	// MaxEmplacementLength is the maximum length for a folder path.
	MaxEmplacementLength = 1000

	// MaxDescriptionLength is the maximum length for document descriptions.
	MaxDescriptionLength = 5000

	// MaxTags is the maximum number of tags per document.
	MaxTags = 20

	// MaxTagLength is the maximum length of a single tag.
	MaxTagLength = 50

	// MaxBulkItems caps the ids accepted by one bulk call.
	MaxBulkItems = 500

	// MaxSharePasswordLength is bcrypt's input limit.
	MaxSharePasswordLength = 72

	// MinSharePasswordLength is the minimum length of a share password.
	MinSharePasswordLength = 4

	// DefaultMaxShareDays is the default upper bound for expiresInDays.
	DefaultMaxShareDays = 365

	// DefaultMaxUploadBytes is the default upload size cap (50 MiB).
	DefaultMaxUploadBytes = 50 << 20

	// DefaultAuditPageSize is the number of audit entries returned when no limit is given.
	DefaultAuditPageSize = 50

	// MaxAuditPageSize caps the audit listing limit.
	MaxAuditPageSize = 500
)

package logging

// Structured field keys.
const (
	FieldError   = "error"
	FieldPath    = "path"
	FieldURL     = "url"
	FieldAddr    = "addr"
	FieldMethod  = "method"
	FieldStatus  = "status"
	FieldElapsed = "elapsed"

	// Catalog.
	FieldTool     = "tool"
	FieldID       = "id"
	FieldCategory = "category"
	FieldQuery    = "query"
	FieldCount    = "count"

	// GitHub.
	FieldRepo      = "repo"
	FieldBranch    = "branch"
	FieldRemaining = "remaining"

	// Build.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)

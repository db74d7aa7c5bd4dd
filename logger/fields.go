package logger

// Standard field names for consistent structured logging across wikigraph.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldClientID = "client_id"
	FieldGroupID  = "group_id"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldQuery     = "query"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts and sizes
	FieldCount      = "count"
	FieldNodeCount  = "node_count"
	FieldEdgeCount  = "edge_count"
	FieldTotalCount = "total_count"

	// Graph-specific
	FieldFocus   = "focus"
	FieldDepth   = "depth"
	FieldCap     = "cap"
	FieldCluster = "cluster"
	FieldLayout  = "layout"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
)

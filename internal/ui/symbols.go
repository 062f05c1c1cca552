package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation succeeded
	SymbolFail     = "✗" // Operation failed
	SymbolPending  = "○" // Not yet dispatched
	SymbolComplete = "●" // Check passed
	SymbolSkipped  = "⊘" // Device skipped
)

package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, enabling zero-touch logging where request
// context (trace_id, thread_id, etc.) is automatically included in all log statements.
type LogFields struct {
	TraceID   *string // per-request trace id (streamed to the client as trace_id)
	ThreadID  *string // conversation thread id
	RunID     *string // orchestrator run id (one per DataExecutor/Reflection cycle)
	Domain    *string // classified domain (sales, inventory, conversations, escalations, presale)
	Component string  // component name, OTel semantic convention style (e.g. "gateway.orchestrator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.TraceID != nil {
		result.TraceID = new.TraceID
	}
	if new.ThreadID != nil {
		result.ThreadID = new.ThreadID
	}
	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.Domain != nil {
		result.Domain = new.Domain
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{TraceID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like queries or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package generation

import (
	"context"
)

// Generator is the boundary between the orchestration core and the external
// text-generation service. Implementations live under platform/.
type Generator interface {
	// ExtractFigures identifies historical figure names in free text,
	// deduplicated, in order of appearance. An empty slice with a nil error
	// means the model answered but found nobody.
	ExtractFigures(ctx context.Context, text string) ([]string, error)

	// GenerateBiography produces the structured biography markdown for one
	// person. Returns ErrGenerationEmpty when the model yields nothing.
	GenerateBiography(ctx context.Context, person string) (string, error)
}

// ChatModel is the low-level chat boundary used by callers that need a raw
// system/user prompt exchange, such as the place-name splitter.
type ChatModel interface {
	// Chat sends one system+user prompt pair and returns the raw completion.
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EventFunc receives human-readable model lifecycle messages so background
// tasks can surface them in their progress log.
type EventFunc func(message string)

type eventCtxKey struct{}

// ContextWithEvents attaches an event callback to the context. Generator
// implementations emit call lifecycle messages through it when present.
func ContextWithEvents(ctx context.Context, fn EventFunc) context.Context {
	return context.WithValue(ctx, eventCtxKey{}, fn)
}

// EventsFromContext returns the attached event callback, or a no-op.
func EventsFromContext(ctx context.Context) EventFunc {
	if fn, ok := ctx.Value(eventCtxKey{}).(EventFunc); ok && fn != nil {
		return fn
	}
	return func(string) {}
}

// Package engine abstracts the external reasoning engine — the opaque
// text-in/text-out capability the chat gateway relays messages to.
//
// The gateway never talks to a provider SDK directly; it is handed an Engine
// at wiring time. That keeps the gateway testable (inject a deterministic
// double) and the provider swappable without touching session logic. Any
// conversation memory the engine keeps across calls is its own concern —
// from this side every call is independent.
package engine

import "context"

// Engine is the reasoning-engine capability.
//
// Complete runs one unit of work to completion and returns the full reply.
//
// StreamComplete produces the reply incrementally: emit is called once per
// fragment, in emission order, as soon as each fragment is available. If
// emit returns an error the stream is abandoned and that error is returned —
// this is how a dead client connection cancels an in-flight completion.
// Both calls honour ctx cancellation.
type Engine interface {
	Complete(ctx context.Context, prompt string) (string, error)
	StreamComplete(ctx context.Context, prompt string, emit func(fragment string) error) error
}

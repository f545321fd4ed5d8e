// Package postproc rewrites a raw transcript with an LLM according to a
// user instruction. It sits between transcription and delivery: when no
// instruction is configured the pipeline skips this package entirely, so a
// Rewriter never sees an empty instruction.
package postproc

import "context"

type Rewriter interface {
	// Rewrite applies the instruction to the transcript and returns the
	// rewritten text. The call is cancellable through ctx.
	Rewrite(ctx context.Context, instruction, transcript string) (string, error)
}

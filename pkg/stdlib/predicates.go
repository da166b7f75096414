package stdlib

import (
	"context"

	"github.com/thomasrohde/golox/pkg/evaluator"
)

// typeof(v) → "nil" | "boolean" | "number" | "string" | "function" | "class" | "instance"
func nativeTypeof(_ context.Context, _ *evaluator.Interpreter, args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	return evaluator.NewString(evaluator.TypeName(args[0])), nil
}

package stdlib

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/golox/pkg/diagnostics"
	"github.com/thomasrohde/golox/pkg/evaluator"
)

// str(v) → string
func nativeStr(_ context.Context, _ *evaluator.Interpreter, args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	return evaluator.NewString(evaluator.Stringify(args[0])), nil
}

// len(s) → number of characters in s
func nativeLen(_ context.Context, _ *evaluator.Interpreter, args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	s, ok := args[0].(evaluator.LoxString)
	if !ok {
		return nil, &evaluator.LoxRuntimeError{
			Code:    diagnostics.EType,
			Message: "len: argument must be a string, got " + evaluator.TypeName(args[0]) + ".",
		}
	}
	return evaluator.NewNumber(float64(utf8.RuneCountInString(s.Value))), nil
}

// num(s) → number, or nil when s is not numeric
func nativeNum(_ context.Context, _ *evaluator.Interpreter, args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	switch v := args[0].(type) {
	case evaluator.LoxNumber:
		return v, nil
	case evaluator.LoxString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return evaluator.NewNil(), nil
		}
		return evaluator.NewNumber(n), nil
	}
	return evaluator.NewNil(), nil
}

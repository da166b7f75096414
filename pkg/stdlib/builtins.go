package stdlib

import (
	"context"
	"fmt"
	"time"

	"github.com/thomasrohde/golox/pkg/evaluator"
)

// RegisterDefaults adds all native functions.
func RegisterDefaults(r *Registry) {
	// Host
	r.Register(Fn{Name: "clock", Arity: 0, Execute: nativeClock})
	r.Register(Fn{Name: "out", Arity: 1, Execute: nativeOut})

	// Values
	r.Register(Fn{Name: "str", Arity: 1, Execute: nativeStr})
	r.Register(Fn{Name: "typeof", Arity: 1, Execute: nativeTypeof})
	r.Register(Fn{Name: "len", Arity: 1, Execute: nativeLen})
	r.Register(Fn{Name: "num", Arity: 1, Execute: nativeNum})
}

// clock() → seconds since the Unix epoch
func nativeClock(context.Context, *evaluator.Interpreter, []evaluator.LoxValue) (evaluator.LoxValue, error) {
	return evaluator.NewNumber(float64(time.Now().UnixNano()) / 1e9), nil
}

// out(v) → nil, printing v like the print statement
func nativeOut(_ context.Context, in *evaluator.Interpreter, args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	if _, err := fmt.Fprintln(in.Stdout(), evaluator.Stringify(args[0])); err != nil {
		return nil, fmt.Errorf("out: %w", err)
	}
	return evaluator.NewNil(), nil
}

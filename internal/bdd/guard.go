package bdd

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cucumber/godog"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Guard wraps a step function so check runs before it. When check fails
// the step body is not called and the step returns check's error wrapped
// with godog.ErrSkip, which godog reports as Skipped.
//
// fn must take a context.Context first and return either error or
// (context.Context, error).
func Guard(check func(context.Context) error, fn any) any {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if err := validateStep(t); err != nil {
		panic(err)
	}

	return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		ctx, _ := args[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}
		if err := check(ctx); err != nil {
			skip := reflect.New(errorType).Elem()
			skip.Set(reflect.ValueOf(fmt.Errorf("%w: %w", err, godog.ErrSkip)))
			if t.NumOut() == 1 {
				return []reflect.Value{skip}
			}
			return []reflect.Value{args[0], skip}
		}
		return v.Call(args)
	}).Interface()
}

func validateStep(t reflect.Type) error {
	if t.Kind() != reflect.Func {
		return fmt.Errorf("step handler must be a func, got %s", t)
	}
	if t.IsVariadic() {
		return fmt.Errorf("step handler %s must not be variadic", t)
	}
	if t.NumIn() == 0 || t.In(0) != contextType {
		return fmt.Errorf("step handler %s must take context.Context as its first argument", t)
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) == errorType:
	case t.NumOut() == 2 && t.Out(0) == contextType && t.Out(1) == errorType:
	default:
		return fmt.Errorf("step handler %s must return error or (context.Context, error)", t)
	}
	return nil
}

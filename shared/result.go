package shared

import "time"

// Result is either a success carrying a value or a failure carrying an error.
// The zero value is a success holding the zero T.
type Result[T any] struct {
	value T
	err   error
}

// Unit is the value of a successful Result that carries nothing.
type Unit struct{}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err builds a failed Result. A nil err still produces a failure so the
// two variants can never be confused.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = NewError(KindInternal, "failure result without an error")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Error() error {
	return r.err
}

// Unwrap converts back to Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Combine folds results into one. It succeeds only when every input did and
// otherwise reports all failures, in input order, as an *AggregateError.
func Combine[T any](results []Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	var failures []error
	for _, r := range results {
		if !r.IsOk() {
			failures = append(failures, r.err)
			continue
		}
		values = append(values, r.value)
	}
	if len(failures) > 0 {
		return Err[[]T](&AggregateError{Errors: failures, Timestamp: time.Now().UTC()})
	}
	return Ok(values)
}

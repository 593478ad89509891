package validate

// Result is either validated data or a non-empty, ordered list of errors.
type Result[T any] struct {
	Success bool    `json:"success"`
	Data    *T      `json:"data,omitempty"`
	Errors  []Error `json:"errors,omitempty"`
}

func succeed[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: &v}
}

func failWith[T any](errs []Error) Result[T] {
	return Result[T]{Errors: errs}
}

// settle succeeds with v when errs is empty and fails otherwise.
func settle[T any](v T, errs []Error) Result[T] {
	if len(errs) > 0 {
		return failWith[T](errs)
	}
	return succeed(v)
}

// Err returns nil on success and a *ValidationError otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

package models

// Result is the uniform envelope returned by every pipeline operation.
// Expected failures travel inside the envelope as Success=false with a
// descriptive message; stages never panic past their own boundary.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func OK[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

func Fail[T any](message string) Result[T] {
	var zero T

	return Result[T]{Success: false, Data: zero, Message: message}
}

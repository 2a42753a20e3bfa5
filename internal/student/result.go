package student

import (
	"encoding/json"
)

// Result is the outcome of one data kind as handed to clients: the data itself, or an
// object with a single "error" field.
type Result[T any] struct {
	Data T
	Err  error
}

func resultOf[T any](data T, err error) Result[T] {
	return Result[T]{Data: data, Err: err}
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Err.Error()})
	}
	return json.Marshal(r.Data)
}

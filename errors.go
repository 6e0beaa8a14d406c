package ridgemesh

import "errors"

// ErrInvalidInput is returned by Execute for a nil heightmap, zero
// dimensions or a sample count that does not match the dimensions.
var ErrInvalidInput = errors.New("ridgemesh: invalid input")

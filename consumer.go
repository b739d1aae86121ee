package blazeindex

// Consumer receives the output of one pipeline stage. Stages push values
// downstream as soon as they are produced; slices handed to Accept are only
// valid for the duration of the call.
type Consumer[T any] interface {
	Accept(v T) error
}

// ConsumerFunc adapts an ordinary function to the Consumer interface.
type ConsumerFunc[T any] func(v T) error

func (f ConsumerFunc[T]) Accept(v T) error { return f(v) }

// Token is a normalized term together with its position in the current field.
type Token struct {
	Position uint32
	Text     []rune
}

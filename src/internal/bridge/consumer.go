// FILE: logbridge/src/internal/bridge/consumer.go
package bridge

import (
	"fmt"
	"reflect"

	"logbridge/src/internal/core"
)

// Consumer receives forwarded records. Accept must not return until the
// record has been processed or queued by the consumer's execution context,
// and it must be fast: producers are blocked while it runs.
type Consumer interface {
	Accept(rec core.Record) error
}

// ConsumerFunc adapts a plain function to Consumer
type ConsumerFunc func(rec core.Record) error

func (f ConsumerFunc) Accept(rec core.Record) error {
	return f(rec)
}

// Validator is implemented by consumers that can report, at registration
// time, that they are unable to accept records.
type Validator interface {
	Validate() error
}

func validateConsumer(c Consumer) error {
	if c == nil {
		return fmt.Errorf("%w: nil consumer", ErrInvalidCallback)
	}

	// Typed nil pointers and funcs satisfy the interface but cannot be called
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		if v.IsNil() {
			return fmt.Errorf("%w: nil %T", ErrInvalidCallback, c)
		}
	}

	if val, ok := c.(Validator); ok {
		if err := val.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCallback, err)
		}
	}
	return nil
}

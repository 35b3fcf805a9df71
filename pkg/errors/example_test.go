// Package errors provides examples of structured error handling in hotpool.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// Example demonstrates basic error creation with context details.
func Example() {
	err := errors.New(errors.ErrorTypeValidation, "backup capacity must not be negative").
		WithDetail("field", "backup_capacity").
		WithDetail("value", -1)

	fmt.Println(err.Error())

	// Output:
	// validation: backup capacity must not be negative
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeProbe, "failed to read memory usage").
		WithDetail("probe", "process")

	if errors.IsType(err, errors.ErrorTypeProbe) {
		fmt.Println("This is a probe error")
	}

	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Cause is preserved")
	}

	// Output:
	// This is a probe error
	// Cause is preserved
}

// ExampleIsResourceExhausted shows how a hot path tells backpressure apart
// from other failures.
func ExampleIsResourceExhausted() {
	err := errors.New(errors.ErrorTypeResourceExhausted, "free list empty").
		WithDetail("available_bytes", 1024)

	fmt.Println(errors.IsResourceExhausted(err))
	fmt.Println(stderrors.Is(err, errors.ErrResourceExhausted))
	fmt.Println(stderrors.Is(errors.New(errors.ErrorTypeInternal, "boom"), errors.ErrResourceExhausted))

	// Output:
	// true
	// true
	// false
}

// ExampleIsRetryable shows which errors describe transient conditions.
func ExampleIsRetryable() {
	probeErr := errors.New(errors.ErrorTypeProbe, "procfs unavailable")
	stateErr := errors.New(errors.ErrorTypeState, "monitor already started")

	fmt.Printf("probe retryable: %v\n", errors.IsRetryable(probeErr))
	fmt.Printf("state retryable: %v\n", errors.IsRetryable(stateErr))

	// Output:
	// probe retryable: true
	// state retryable: false
}

// Example_errorChain shows how wrapped errors render.
func Example_errorChain() {
	err := errors.Wrap(readConfig(), errors.ErrorTypeConfig, "failed to load configuration").
		WithDetail("path", "hotpool.yaml")

	fmt.Println(err)

	// Output:
	// config: failed to load configuration: file: no such file
}

func readConfig() error {
	return errors.New(errors.ErrorTypeFile, "no such file")
}

// ExampleIsType demonstrates that IsType inspects the outermost error only.
func ExampleIsType() {
	probeErr := errors.New(errors.ErrorTypeProbe, "read failed")
	wrapped := errors.Wrap(probeErr, errors.ErrorTypeInternal, "sampling failed")

	fmt.Printf("Is probe error: %v\n", errors.IsType(probeErr, errors.ErrorTypeProbe))
	fmt.Printf("Wrapped is internal: %v\n", errors.IsType(wrapped, errors.ErrorTypeInternal))
	fmt.Printf("Wrapped is probe: %v\n", errors.IsType(wrapped, errors.ErrorTypeProbe))

	// Output:
	// Is probe error: true
	// Wrapped is internal: true
	// Wrapped is probe: false
}

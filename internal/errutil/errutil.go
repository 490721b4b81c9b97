// Package errutil collects and filters the per-node failures produced while
// rendering an inventory (spec §7: "errors inside a node render are caught by
// the driver ... the driver returns a composite failure if any node failed").
package errutil

import (
	"fmt"
	"strings"
)

// Errors is a flat collection of node-render failures. It never contains nil
// values and never nests another *Errors inside itself (Join flattens).
type Errors struct {
	errs []error
}

func (e *Errors) Error() string {
	var b strings.Builder
	b.Grow(len(e.errs) * 32)
	for i, err := range e.errs {
		b.WriteString(fmt.Sprintf("[%d] %v\n", i, err))
	}
	return b.String()
}

func (e *Errors) Unwrap() []error {
	return e.errs
}

// Len reports how many errors are held, for callers that want to branch on
// "did anything fail" without formatting a message.
func (e *Errors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.errs)
}

// Join flattens errs into a single *Errors, dropping nils and flattening any
// nested *Errors so the result is never more than one level deep. Returns nil
// if every argument was nil, matching errors.Join's "no failures" contract.
func Join(errs ...error) error {
	var result Errors

	size := 0
	for _, err := range errs {
		if err != nil {
			size++
		}
	}
	if size == 0 {
		return nil
	}

	result.errs = make([]error, 0, size)
	for _, err := range errs {
		if err == nil {
			continue
		}
		result.errs = append(result.errs, deepUnwrap(err)...)
	}
	return &result
}

// ShallowUnwrap returns the immediate children of a joined error, or the
// error itself as a single-element slice if it isn't a multi-error.
func ShallowUnwrap(err error) []error {
	if err == nil {
		return nil
	}
	unwrap, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	return unwrap.Unwrap()
}

func deepUnwrap(err error) []error {
	if err == nil {
		return nil
	}
	var result []error
	if multi, ok := err.(*Errors); ok {
		for _, e := range multi.Unwrap() {
			result = append(result, deepUnwrap(e)...)
		}
	} else {
		result = append(result, err)
	}
	return result
}

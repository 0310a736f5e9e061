package util

import (
	"fmt"
)

// SafeInvoke runs a user-supplied function such that panics are recovered and
// nice error messages are constructed. kind names the operation (e.g. "AddInput")
// and subject describes what it was applied to.
func SafeInvoke(kind string, subject func() string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = fmt.Errorf("%s Panic: %w\nInput: %s\n%s", kind, anErr, subject(), GetTrace())
			} else {
				err = fmt.Errorf("%s Panic: %v\nInput: %s\n%s", kind, r, subject(), GetTrace())
			}
		} else if err != nil {
			err = fmt.Errorf("%s Error: %w\nInput: %s", kind, err, subject())
		}
	}()
	err = fn()
	return
}

// Describe returns a lazily-formatted description of a value, for use with SafeInvoke
func Describe(v interface{}) func() string {
	return func() string {
		return fmt.Sprintf("%v", v)
	}
}

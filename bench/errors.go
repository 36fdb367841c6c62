package bench

import (
	"fmt"
)

// ResourceError reports a failure to acquire or release memory, a file or a
// mapping. It unwraps to the underlying system error.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IntegrityError reports a verification pass whose word sum was not zero.
type IntegrityError struct {
	Pass      PassKind
	Sum       uint
	Iteration uint64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: sum did not add to zero (%d) on iteration %d",
		e.Pass, e.Sum, e.Iteration)
}

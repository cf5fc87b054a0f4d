package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitCodeOK         = 0
	ExitCodeError      = 1
	ExitCodeItemFailed = 2
)

// BatchExitError reports that a run finished but at least one item failed.
// The output has already been written when it is returned.
type BatchExitError struct {
	ExitCode int
	Failed   int
	Total    int
}

func (e *BatchExitError) Error() string {
	return fmt.Sprintf("%d of %d videos failed", e.Failed, e.Total)
}

// ExitCode maps the error returned by the root command to a process exit
// code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}
	var batchErr *BatchExitError
	if errors.As(err, &batchErr) {
		return batchErr.ExitCode
	}
	return ExitCodeError
}

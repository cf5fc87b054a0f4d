// Command youseo analyzes YouTube videos for search optimization.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/youseo/internal/cli"
	"github.com/rshade/youseo/pkg/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command tree and returns the process exit code.
// An interrupt stops new videos from starting; the ones in flight finish.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(displayVersion())
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		var batchErr *cli.BatchExitError
		if !errors.As(err, &batchErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return extractExitCode(err)
}

// displayVersion is the --version text. Pre-release builds are flagged.
func displayVersion() string {
	if version.IsDevelopment() {
		return version.GetVersion() + " (development build)"
	}
	return version.GetVersion()
}

// extractExitCode maps err to the process exit code.
func extractExitCode(err error) int {
	return cli.ExitCode(err)
}

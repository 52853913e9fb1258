package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schoolblog/blogctl/internal/cmd"
	"github.com/schoolblog/blogctl/internal/errors"
	"github.com/schoolblog/blogctl/internal/exitcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled")
			exitcode.Exit(exitcode.Interrupted)
		}

		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.UserMessage(err))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}

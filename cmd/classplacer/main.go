package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/classplacer/internal/cli"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func main() {
	ctx := setupSignalHandler()
	root := cli.NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		e := clierrors.FromError(err)
		fmt.Fprintf(os.Stderr, "error: %v\n", e)
		os.Exit(e.Status)
	}
}

// setupSignalHandler returns a context cancelled on the first SIGINT or
// SIGTERM; a second signal exits the process directly.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

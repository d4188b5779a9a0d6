package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "minhash-neighbors",
		Version:     gitCommitSHA,
		Description: "CLI to fit and query a MinHash locality-sensitive nearest-neighbor index over sparse feature vectors.",
		Flags:       NewKlogFlagSet(),
		Commands: []*cli.Command{
			newCmd_Fit(),
			newCmd_Query(),
			newCmd_Describe(),
			newCmd_Prune(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}

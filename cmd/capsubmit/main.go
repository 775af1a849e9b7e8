package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/containerd/containerd/log"

	"github.com/aalto-cbir/caption-tools/pkg/common"
	"github.com/aalto-cbir/caption-tools/pkg/slurm"
)

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("capsubmit", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to the cluster configuration")
	name := flags.String("name", "", "Job name, defaults to the program name")
	verbose := flags.Bool("verbose", false, "Enable or disable Debug level logging")
	errorsOnly := flags.Bool("errorsonly", false, "Prints only errors if enabled")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: capsubmit [flags] PROG [ARG...]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if flags.NArg() == 0 {
		flags.Usage()
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := slurm.NewClusterConfig(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	common.SetupLogger(*verbose || config.VerboseLogging, *errorsOnly || config.ErrorsOnlyLogging)

	if os.Getenv("ENABLE_TRACING") == "1" {
		shutdown, err := common.InitTracer(ctx, "capsubmit")
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.G(ctx).Error("failed to shutdown TracerProvider: ", err)
			}
		}()
		log.G(ctx).Info("Tracer setup succeeded")
	}

	manager, err := slurm.NewManager(ctx, config)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	jobName := *name
	if jobName == "" {
		jobName = flags.Arg(0)
	}

	sub, err := manager.Submit(ctx, slurm.JobSpec{
		Name:    jobName,
		Command: flags.Args(),
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	log.G(ctx).Info("Submitted job " + sub.JID + " as " + sub.Name)
	fmt.Println(sub.UID)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

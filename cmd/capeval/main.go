package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/containerd/containerd/log"

	"github.com/aalto-cbir/caption-tools/pkg/common"
	"github.com/aalto-cbir/caption-tools/pkg/datasets"
	"github.com/aalto-cbir/caption-tools/pkg/slurm"
)

// evalCommand builds the payload argv for one checkpoint.
func evalCommand(evalArgv []string, checkpoint string, dataset string) []string {
	command := append([]string{}, evalArgv...)
	command = append(command, "--model", checkpoint)
	if dataset != "" {
		command = append(command, "--dataset", dataset)
	}
	return command
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("capeval", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to the cluster configuration")
	datasetName := flags.String("dataset", "", "Dataset section to evaluate on, e.g. coco:val2014")
	datasetConfig := flags.String("dataset-config", "", "Path to the dataset configuration file")
	evalCmd := flags.String("eval-cmd", "python3 infer.py", "Evaluation program to run on the cluster")
	verbose := flags.Bool("verbose", false, "Enable or disable Debug level logging")
	errorsOnly := flags.Bool("errorsonly", false, "Prints only errors if enabled")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: capeval [flags] CHECKPOINT...")
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
		shutdown, err := common.InitTracer(ctx, "capeval")
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

	if *datasetName != "" {
		if *datasetConfig == "" {
			fmt.Fprintln(stderr, "capeval: -dataset requires -dataset-config")
			return 1
		}
		reg, err := datasets.Load(ctx, *datasetConfig)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if !reg.Has(*datasetName) {
			fmt.Fprintln(stderr, "capeval: dataset "+*datasetName+" not found in "+*datasetConfig)
			return 1
		}
	}

	manager, err := slurm.NewManager(ctx, config)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	evalArgv := strings.Fields(*evalCmd)
	for i, checkpoint := range flags.Args() {
		if i > 0 {
			// throttle consecutive submissions
			time.Sleep(time.Duration(config.SubmitInterval) * time.Second)
		}

		spec := slurm.JobSpec{
			Name:    "eval-" + strings.TrimSuffix(filepath.Base(checkpoint), filepath.Ext(checkpoint)),
			Command: evalCommand(evalArgv, checkpoint, *datasetName),
			Comment: checkpoint,
		}
		sub, err := manager.Submit(ctx, spec)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		log.G(ctx).Info("Submitted evaluation job " + sub.JID + " for " + checkpoint)
	}

	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/containerd/containerd/log"

	"github.com/aalto-cbir/caption-tools/pkg/common"
	"github.com/aalto-cbir/caption-tools/pkg/slurm"
)

func listJobs(ctx context.Context, manager *slurm.Manager, stdout io.Writer) error {
	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tJID\tNAME\tSTATE\tSUBMITTED")
	for _, sub := range manager.List() {
		status, err := manager.Status(ctx, sub.UID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			sub.UID, sub.JID, sub.Name, status.State, sub.SubmittedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	flags := flag.NewFlagSet("capjobs", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to the cluster configuration")
	cancelUID := flags.String("cancel", "", "Cancel the submission with the given UID")
	logsUID := flags.String("logs", "", "Print the output of the submission with the given UID")
	follow := flags.Bool("follow", false, "With -logs, keep streaming until the job finishes")
	verbose := flags.Bool("verbose", false, "Enable or disable Debug level logging")
	errorsOnly := flags.Bool("errorsonly", false, "Prints only errors if enabled")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: capjobs [flags] [-cancel UID | -logs UID]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
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
		shutdown, err := common.InitTracer(ctx, "capjobs")
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

	switch {
	case *cancelUID != "":
		err = manager.Cancel(ctx, *cancelUID)
	case *logsUID != "":
		err = manager.Logs(ctx, *logsUID, *follow, stdout)
	default:
		err = listJobs(ctx, manager, stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

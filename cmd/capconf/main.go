package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/aalto-cbir/caption-tools/pkg/common"
	"github.com/aalto-cbir/caption-tools/pkg/datasets"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: capconf -config FILE [SECTION...]")
	flag.PrintDefaults()
}

// printSection prints one resolved section with its keys sorted, the way the
// dataset loaders see it after inheritance.
func printSection(reg *datasets.Registry, name string) error {
	section, ok := reg.Section(name)
	if !ok {
		return fmt.Errorf("capconf: section [%s] not found in %s", name, reg.File())
	}

	keys := make([]string, 0, len(section))
	for key := range section {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("[%s]\n", name)
	for _, key := range keys {
		fmt.Printf("%s = %s\n", key, section[key])
	}
	fmt.Println()
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to the dataset configuration file")
	verbose := flag.Bool("verbose", false, "Enable or disable Debug level logging")
	errorsOnly := flag.Bool("errorsonly", false, "Prints only errors if enabled")
	flag.Usage = usage
	flag.Parse()

	if *configPath == "" {
		usage()
		os.Exit(1)
	}

	common.SetupLogger(*verbose, *errorsOnly)
	ctx := context.Background()

	reg, err := datasets.Load(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	names := flag.Args()
	if len(names) == 0 {
		names = reg.Names()
	}

	for _, name := range names {
		if err := printSection(reg, name); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

package slurm

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/containerd/containerd/log"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// safeName turns an arbitrary job name into something usable both as an
// sbatch job name and as a folder name under DataRootFolder.
func safeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "job"
	}
	return name
}

// produceScript generates the SLURM batch script for one submission inside
// dir. The payload argv is written shell-escaped on a single line, followed
// by a line recording its exit code, so the queue state of a finished job can
// be recovered without the scheduler's accounting.
// It returns the path to the generated script and the first encountered error.
func produceScript(ctx context.Context, config ClusterConfig, dir string, spec JobSpec) (string, error) {
	log.G(ctx).Info("- Creating file for the Slurm script")
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		log.G(ctx).Error(err)
		return "", err
	}
	log.G(ctx).Debug("-- Created directory " + dir)

	scriptPath := filepath.Join(dir, "job.sh")
	f, err := os.Create(scriptPath)
	if err != nil {
		log.G(ctx).Error("Unable to create file " + scriptPath)
		return "", err
	}
	defer f.Close()

	err = os.Chmod(scriptPath, 0774)
	if err != nil {
		log.G(ctx).Error(err)
		return "", err
	}

	var script strings.Builder
	script.WriteString("#!" + config.BashPath + "\n")
	script.WriteString("#SBATCH --job-name=" + spec.Name + "\n")
	script.WriteString("#SBATCH --output=" + filepath.Join(dir, "job.out") + "\n")
	if config.Partition != "" {
		script.WriteString("#SBATCH --partition=" + config.Partition + "\n")
	}
	if config.Gres != "" {
		script.WriteString("#SBATCH --gres=" + config.Gres + "\n")
	}
	if config.Mem != "" {
		script.WriteString("#SBATCH --mem=" + config.Mem + "\n")
	}
	if config.Walltime != "" {
		script.WriteString("#SBATCH --time=" + config.Walltime + "\n")
	}

	if config.Commandprefix != "" {
		script.WriteString("\n" + config.Commandprefix + "\n")
	}

	if len(config.Modules) > 0 {
		script.WriteString("\nmodule purge\n")
		for _, mod := range config.Modules {
			script.WriteString("module load " + mod + "\n")
		}
	}

	script.WriteString("\n")
	for i, entry := range spec.Command {
		if i > 0 {
			script.WriteString(" ")
		}
		script.WriteString(shellescape.Quote(entry))
	}
	script.WriteString("\necho $? > " + filepath.Join(dir, "job.status") + "\n")

	log.G(ctx).Debug("--- Writing file")
	_, err = f.WriteString(script.String())
	if err != nil {
		log.G(ctx).Error(err)
		return "", err
	}
	log.G(ctx).Debug("---- Written file")

	return scriptPath, nil
}

package slurm

import (
	"context"
	"os"
	"path/filepath"

	"github.com/containerd/containerd/log"
	"gopkg.in/yaml.v2"
)

const defaultConfigPath = "/etc/captools/ClusterConfig.yaml"

// NewClusterConfig loads the cluster configuration used by every command and
// returns it with the first encountered error. The path argument comes from
// the -config flag; when empty, the CAPTOOLSCONFIGPATH environment variable
// and the default path are the fallbacks. Individual fields can be overridden
// with SBATCHPATH, SCANCELPATH, SQUEUEPATH and PARTITION.
func NewClusterConfig(ctx context.Context, path string) (ClusterConfig, error) {
	if path == "" {
		if os.Getenv("CAPTOOLSCONFIGPATH") != "" {
			path = os.Getenv("CAPTOOLSCONFIGPATH")
		} else {
			path = defaultConfigPath
		}
	}

	if _, err := os.Stat(path); err != nil {
		log.G(ctx).Error("File " + path + " doesn't exist. You can set a custom path by exporting CAPTOOLSCONFIGPATH. Exiting...")
		return ClusterConfig{}, err
	}

	log.G(ctx).Info("Loading cluster config from " + path)
	yfile, err := os.ReadFile(path)
	if err != nil {
		log.G(ctx).Error("Error opening config file, exiting...")
		return ClusterConfig{}, err
	}

	var config ClusterConfig
	if err := yaml.Unmarshal(yfile, &config); err != nil {
		log.G(ctx).Error("Error unmarshalling config file, exiting...")
		return ClusterConfig{}, err
	}

	if os.Getenv("SBATCHPATH") != "" {
		config.Sbatchpath = os.Getenv("SBATCHPATH")
	}

	if os.Getenv("SCANCELPATH") != "" {
		config.Scancelpath = os.Getenv("SCANCELPATH")
	}

	if os.Getenv("SQUEUEPATH") != "" {
		config.Squeuepath = os.Getenv("SQUEUEPATH")
	}

	if os.Getenv("PARTITION") != "" {
		config.Partition = os.Getenv("PARTITION")
	}

	applyDefaults(&config)

	return config, nil
}

func applyDefaults(config *ClusterConfig) {
	if config.Sbatchpath == "" {
		config.Sbatchpath = "sbatch"
	}
	if config.Scancelpath == "" {
		config.Scancelpath = "scancel"
	}
	if config.Squeuepath == "" {
		config.Squeuepath = "squeue"
	}
	if config.BashPath == "" {
		config.BashPath = "/bin/bash"
	}
	if config.DataRootFolder == "" {
		config.DataRootFolder = filepath.Join(os.TempDir(), "captools")
	}
	if config.SubmitInterval <= 0 {
		// keeps consecutive sbatch calls from hammering the controller
		config.SubmitInterval = 1
	}
	if config.FollowInterval <= 0 {
		config.FollowInterval = 4
	}
}

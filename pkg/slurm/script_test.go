package slurm

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	assert.Equal(t, "eval-ep12.model", safeName("eval-ep12.model"))
	assert.Equal(t, "eval-coco-val2014", safeName("eval-coco:val2014"))
	assert.Equal(t, "a-b", safeName("a b"))
	assert.Equal(t, "job", safeName(""))
	assert.Equal(t, "job", safeName("///"))
}

func TestProduceScript(t *testing.T) {
	config := ClusterConfig{
		BashPath:      "/bin/bash",
		Partition:     "gpu",
		Gres:          "gpu:k80:1",
		Mem:           "24G",
		Walltime:      "01:30:00",
		Modules:       []string{"python-env/3.5.3-ml"},
		Commandprefix: "set -e",
	}
	dir := filepath.Join(t.TempDir(), "eval-ep12")
	spec := JobSpec{
		Name:    "eval-ep12",
		Command: []string{"python3", "infer.py", "--model", "models/ep 12.model"},
	}

	scriptPath, err := produceScript(context.Background(), config, dir, spec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job.sh"), scriptPath)

	info, err := os.Stat(scriptPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0100, "script must be executable")

	raw, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	script := string(raw)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	assert.Contains(t, script, "#SBATCH --job-name=eval-ep12\n")
	assert.Contains(t, script, "#SBATCH --output="+filepath.Join(dir, "job.out")+"\n")
	assert.Contains(t, script, "#SBATCH --partition=gpu\n")
	assert.Contains(t, script, "#SBATCH --gres=gpu:k80:1\n")
	assert.Contains(t, script, "#SBATCH --mem=24G\n")
	assert.Contains(t, script, "#SBATCH --time=01:30:00\n")
	assert.Contains(t, script, "set -e\n")
	assert.Contains(t, script, "module purge\n")
	assert.Contains(t, script, "module load python-env/3.5.3-ml\n")

	// the checkpoint path with a space must come out quoted
	assert.Contains(t, script, "python3 infer.py --model 'models/ep 12.model'\n")
	assert.Contains(t, script, "echo $? > "+filepath.Join(dir, "job.status")+"\n")
}

func TestProduceScriptBareConfig(t *testing.T) {
	config := ClusterConfig{BashPath: "/bin/bash"}
	dir := filepath.Join(t.TempDir(), "job")

	scriptPath, err := produceScript(context.Background(), config, dir, JobSpec{
		Name:    "job",
		Command: []string{"hostname"},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	script := string(raw)

	assert.NotContains(t, script, "--partition")
	assert.NotContains(t, script, "--gres")
	assert.NotContains(t, script, "module load")
	assert.Contains(t, script, "hostname\n")
}

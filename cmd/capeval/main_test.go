package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalCommand(t *testing.T) {
	argv := []string{"python3", "infer.py"}

	assert.Equal(t,
		[]string{"python3", "infer.py", "--model", "ep12.model"},
		evalCommand(argv, "ep12.model", ""))

	assert.Equal(t,
		[]string{"python3", "infer.py", "--model", "ep12.model", "--dataset", "coco:val2014"},
		evalCommand(argv, "ep12.model", "coco:val2014"))

	// the shared argv must not accumulate arguments across calls
	assert.Equal(t, []string{"python3", "infer.py"}, argv)
}

func TestRunNoArguments(t *testing.T) {
	var stderr bytes.Buffer
	code := run(nil, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "usage: capeval")
}

func TestRunSubmitsEachCheckpoint(t *testing.T) {
	tmp := t.TempDir()
	callLog := filepath.Join(tmp, "calls.log")

	sbatch := filepath.Join(tmp, "sbatch")
	require.NoError(t, os.WriteFile(sbatch,
		[]byte("#!/bin/sh\ncat $@ >> "+callLog+"\necho Submitted batch job 11\n"), 0755))

	configPath := filepath.Join(tmp, "ClusterConfig.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"SbatchPath: \""+sbatch+"\"\n"+
			"DataRootFolder: \""+filepath.Join(tmp, "jobs")+"\"\n"+
			"SubmitIntervalSeconds: 1\n"), 0644))

	var stderr bytes.Buffer
	code := run([]string{"-config", configPath, "model1.ckpt", "model2.ckpt"}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	raw, err := os.ReadFile(callLog)
	require.NoError(t, err)
	script := string(raw)

	assert.Equal(t, 2, strings.Count(script, "--model "))
	assert.Contains(t, script, "--model model1.ckpt")
	assert.Contains(t, script, "--model model2.ckpt")
}

func TestRunUnknownDataset(t *testing.T) {
	tmp := t.TempDir()

	configPath := filepath.Join(tmp, "ClusterConfig.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("DataRootFolder: \""+filepath.Join(tmp, "jobs")+"\"\n"), 0644))

	datasetConf := filepath.Join(tmp, "datasets.conf")
	require.NoError(t, os.WriteFile(datasetConf,
		[]byte("[coco]\ndataset_class = CocoDataset\n"), 0644))

	var stderr bytes.Buffer
	code := run([]string{
		"-config", configPath,
		"-dataset", "msrvtt:train",
		"-dataset-config", datasetConf,
		"model1.ckpt",
	}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "msrvtt:train")
}

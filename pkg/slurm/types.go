package slurm

import (
	"context"
	"time"
)

// ClusterConfig holds the whole submission configuration for one cluster
// deployment (taito, aalto-cs, default...).
type ClusterConfig struct {
	Sbatchpath        string   `yaml:"SbatchPath"`
	Scancelpath       string   `yaml:"ScancelPath"`
	Squeuepath        string   `yaml:"SqueuePath"`
	BashPath          string   `yaml:"BashPath"`
	DataRootFolder    string   `yaml:"DataRootFolder"`
	Partition         string   `yaml:"Partition"`
	Gres              string   `yaml:"Gres"`
	Mem               string   `yaml:"Mem"`
	Walltime          string   `yaml:"Walltime"`
	Modules           []string `yaml:"Modules"`
	Commandprefix     string   `yaml:"CommandPrefix"`
	SubmitInterval    int      `yaml:"SubmitIntervalSeconds"`
	FollowInterval    int      `yaml:"FollowIntervalSeconds"`
	VerboseLogging    bool     `yaml:"VerboseLogging"`
	ErrorsOnlyLogging bool     `yaml:"ErrorsOnlyLogging"`
}

// JobSpec describes one job to hand over to the scheduler.
type JobSpec struct {
	// Name becomes the sbatch job name and the prefix of the submission
	// folder. It is sanitized before use.
	Name string
	// Command is the payload argv, escaped element by element in the
	// generated batch script.
	Command []string
	// Comment is free-form bookkeeping, e.g. the checkpoint being evaluated.
	Comment string
}

// Submission tracks one job handed over to the scheduler.
type Submission struct {
	UID         string    `json:"UID"`
	Name        string    `json:"Name"`
	JID         string    `json:"JID"`
	Comment     string    `json:"Comment"`
	SubmittedAt time.Time `json:"SubmittedAt"`
}

// JobState is the coarse queue state of a submission.
type JobState string

const (
	StatePending   JobState = "PENDING"
	StateRunning   JobState = "RUNNING"
	StateCompleted JobState = "COMPLETED"
	StateFailed    JobState = "FAILED"
	StateUnknown   JobState = "UNKNOWN"
)

// JobStatus is the queue state of one submission. ExitCode is only
// meaningful once the job has left the queue and State is COMPLETED or
// FAILED.
type JobStatus struct {
	UID      string
	JID      string
	State    JobState
	ExitCode int
}

// Manager drives sbatch, squeue and scancel for every submission this tool
// owns, and keeps their job IDs in memory and on disk.
type Manager struct {
	Config ClusterConfig
	Subs   map[string]*Submission
	Ctx    context.Context
}

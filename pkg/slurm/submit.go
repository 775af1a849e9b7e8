package slurm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	exec2 "github.com/alexellis/go-execute/pkg/v1"
	"github.com/containerd/containerd/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"

	"github.com/aalto-cbir/caption-tools/pkg/common"
)

const timestampFormat = "2006-01-02 15:04:05.999999999 -0700 MST"

var submittedJobRegexp = regexp.MustCompile(`Submitted batch job (?P<jid>\d+)`)

// NewManager builds a Manager for the given cluster configuration, making
// sure the data root folder exists and reloading the job IDs of earlier
// submissions from it.
func NewManager(ctx context.Context, config ClusterConfig) (*Manager, error) {
	m := &Manager{
		Config: config,
		Subs:   make(map[string]*Submission),
		Ctx:    ctx,
	}
	if err := m.createDirectories(); err != nil {
		return nil, err
	}
	if err := m.LoadSubmissions(); err != nil {
		return nil, err
	}
	return m, nil
}

// createDirectories is just a function to be sure directories exist at runtime
func (m *Manager) createDirectories() error {
	path := m.Config.DataRootFolder
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			err = os.MkdirAll(path, os.ModePerm)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// submissionDir is the on-disk folder holding the script, output and job ID
// files of one submission.
func (m *Manager) submissionDir(sub *Submission) string {
	return filepath.Join(m.Config.DataRootFolder, sub.Name+"-"+sub.UID)
}

// Submit generates and submits a SLURM batch script for the given spec.
// 1 spec = 1 scheduler job. It returns the tracked submission and the first
// encountered error.
func (m *Manager) Submit(ctx context.Context, spec JobSpec) (*Submission, error) {
	start := time.Now().UnixMicro()
	tracer := otel.Tracer("captools-API")
	spanCtx, span := tracer.Start(ctx, "Submit", trace.WithAttributes(
		attribute.Int64("start.timestamp", start),
	))
	defer span.End()
	defer common.SetDurationSpan(start, span)

	if len(spec.Command) == 0 {
		return nil, errors.New("empty job command")
	}
	spec.Name = safeName(spec.Name)

	uid := uuid.New().String()
	dir := filepath.Join(m.Config.DataRootFolder, spec.Name+"-"+uid)

	log.G(spanCtx).Info("- Beginning script generation for " + spec.Name)
	scriptPath, err := produceScript(spanCtx, m.Config, dir, spec)
	if err != nil {
		return nil, err
	}

	output, err := m.batchSubmit(spanCtx, scriptPath)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	sub, err := m.handleJID(spanCtx, uid, spec, output, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	span.SetAttributes(attribute.String("submit.jid", sub.JID))
	return sub, nil
}

// batchSubmit hands the script in the path argument over to the SLURM queue.
// At this point, it's up to the SLURM scheduler to manage the job.
// Returns the output of the sbatch command and the first encountered error.
func (m *Manager) batchSubmit(ctx context.Context, path string) (string, error) {
	log.G(ctx).Info("- Submitting Slurm job")
	shell := exec2.ExecTask{
		Command: m.Config.Sbatchpath,
		Args:    []string{path},
		Shell:   true,
	}

	execReturn, err := shell.Execute()
	if err != nil {
		log.G(ctx).Error("Unable to run " + m.Config.Sbatchpath)
		return "", err
	}
	execReturn.Stdout = strings.ReplaceAll(execReturn.Stdout, "\n", "")

	if execReturn.Stderr != "" {
		log.G(ctx).Error("Could not run sbatch: " + execReturn.Stderr)
		return "", errors.New(execReturn.Stderr)
	}
	log.G(ctx).Debug("Job submitted")
	return execReturn.Stdout, nil
}

// handleJID parses the scheduler job ID out of the sbatch output, stores it
// on disk next to the script and records the submission in the map.
// Return the submission and the first encountered error.
func (m *Manager) handleJID(ctx context.Context, uid string, spec JobSpec, output string, dir string) (*Submission, error) {
	match := submittedJobRegexp.FindStringSubmatch(output)
	if match == nil {
		return nil, fmt.Errorf("unexpected sbatch output: %q", output)
	}
	jid := match[1]

	if err := os.WriteFile(filepath.Join(dir, "JobID.jid"), []byte(jid), 0644); err != nil {
		log.G(ctx).Error("Can't create jid_file")
		return nil, err
	}

	sub := &Submission{
		UID:         uid,
		Name:        spec.Name,
		JID:         jid,
		Comment:     spec.Comment,
		SubmittedAt: time.Now(),
	}
	if err := os.WriteFile(filepath.Join(dir, "SubmittedAt.time"), []byte(sub.SubmittedAt.Format(timestampFormat)), 0644); err != nil {
		log.G(ctx).Error(err)
		return nil, err
	}

	m.Subs[uid] = sub
	log.G(ctx).Info("Job ID is: " + jid)
	return sub, nil
}

// LoadSubmissions loads job IDs into the manager from files in the root
// folder. It's useful when the tool exited while submitted jobs were still
// queued or running.
func (m *Manager) LoadSubmissions() error {
	dir, err := os.Open(m.Config.DataRootFolder)
	if err != nil {
		log.G(m.Ctx).Error(err)
		return err
	}
	defer dir.Close()

	entries, err := dir.ReadDir(0)
	if err != nil {
		log.G(m.Ctx).Error(err)
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		// folders are named <name>-<uuid>, the uuid being 36 chars
		folder := entry.Name()
		if len(folder) < 38 {
			continue
		}
		uid := folder[len(folder)-36:]
		name := folder[:len(folder)-37]
		if _, err := uuid.Parse(uid); err != nil {
			log.G(m.Ctx).Debug("Skipping folder " + folder + ": not a submission")
			continue
		}

		jid, err := os.ReadFile(filepath.Join(m.Config.DataRootFolder, folder, "JobID.jid"))
		if err != nil {
			log.G(m.Ctx).Debug(err)
			continue
		}

		submittedAt := time.Time{}
		raw, err := os.ReadFile(filepath.Join(m.Config.DataRootFolder, folder, "SubmittedAt.time"))
		if err != nil {
			log.G(m.Ctx).Debug(err)
		} else {
			submittedAt, err = time.Parse(timestampFormat, string(raw))
			if err != nil {
				log.G(m.Ctx).Debug(err)
			}
		}

		m.Subs[uid] = &Submission{
			UID:         uid,
			Name:        name,
			JID:         strings.TrimSpace(string(jid)),
			SubmittedAt: submittedAt,
		}
	}

	return nil
}

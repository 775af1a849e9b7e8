package slurm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	exec2 "github.com/alexellis/go-execute/pkg/v1"
	"github.com/containerd/containerd/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"

	"github.com/aalto-cbir/caption-tools/pkg/common"
)

// List returns the tracked submissions ordered by submission time.
func (m *Manager) List() []*Submission {
	subs := make([]*Submission, 0, len(m.Subs))
	for _, sub := range m.Subs {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].UID < subs[j].UID
		}
		return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
	})
	return subs
}

// Status runs squeue for one submission and maps the scheduler's state code.
// Once the job left the queue the payload exit code is read back from the
// job.status file the batch script wrote.
func (m *Manager) Status(ctx context.Context, uid string) (JobStatus, error) {
	start := time.Now().UnixMicro()
	tracer := otel.Tracer("captools-API")
	spanCtx, span := tracer.Start(ctx, "Status", trace.WithAttributes(
		attribute.Int64("start.timestamp", start),
	))
	defer span.End()
	defer common.SetDurationSpan(start, span)

	sub, ok := m.Subs[uid]
	if !ok {
		return JobStatus{}, fmt.Errorf("unknown submission %s", uid)
	}
	span.SetAttributes(attribute.String("status.jid", sub.JID))

	shell := exec2.ExecTask{
		Command: m.Config.Squeuepath,
		Args:    []string{"--noheader", "-a", "-j " + sub.JID, "-o", "%t"},
		Shell:   true,
	}
	execReturn, _ := shell.Execute()
	state := strings.TrimSpace(execReturn.Stdout)

	if execReturn.Stderr != "" || state == "" {
		// squeue no longer knows the job, so it left the queue
		log.G(spanCtx).Debug("Job " + sub.JID + " not in queue, reading exit status")
		return m.finishedStatus(spanCtx, sub)
	}

	status := JobStatus{UID: sub.UID, JID: sub.JID}
	switch state {
	case "PD", "S":
		status.State = StatePending
	case "R", "CG":
		status.State = StateRunning
	case "CD":
		status.State = StateCompleted
	case "F", "PR", "ST", "CA", "TO", "NF", "OOM":
		status.State = StateFailed
	default:
		log.G(spanCtx).Debug("Unhandled squeue state code " + state)
		status.State = StateUnknown
	}
	return status, nil
}

// finishedStatus recovers the final state of a job that squeue no longer
// reports, from the exit code file next to its script.
func (m *Manager) finishedStatus(ctx context.Context, sub *Submission) (JobStatus, error) {
	status := JobStatus{UID: sub.UID, JID: sub.JID, State: StateUnknown}

	raw, err := os.ReadFile(filepath.Join(m.submissionDir(sub), "job.status"))
	if err != nil {
		log.G(ctx).Debug(err)
		return status, nil
	}

	exitCode, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		log.G(ctx).Error(fmt.Errorf("unable to convert job status: %s", err))
		return status, nil
	}

	status.ExitCode = exitCode
	if exitCode == 0 {
		status.State = StateCompleted
	} else {
		status.State = StateFailed
	}
	return status, nil
}

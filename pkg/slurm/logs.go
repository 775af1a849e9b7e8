package slurm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/containerd/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"

	"github.com/aalto-cbir/caption-tools/pkg/common"
)

// Logs writes the scheduler output of one submission to w. In follow mode it
// keeps streaming until the job writes its exit status file, polling the
// output file every FollowInterval seconds since the shared filesystem gives
// no notification.
func (m *Manager) Logs(ctx context.Context, uid string, follow bool, w io.Writer) error {
	start := time.Now().UnixMicro()
	tracer := otel.Tracer("captools-API")
	spanCtx, span := tracer.Start(ctx, "Logs", trace.WithAttributes(
		attribute.Int64("start.timestamp", start),
		attribute.Bool("logs.follow", follow),
	))
	defer span.End()
	defer common.SetDurationSpan(start, span)

	sub, ok := m.Subs[uid]
	if !ok {
		return fmt.Errorf("unknown submission %s", uid)
	}

	dir := m.submissionDir(sub)
	outputPath := filepath.Join(dir, "job.out")
	statusPath := filepath.Join(dir, "job.status")

	if !follow {
		output, err := os.ReadFile(outputPath)
		if err != nil {
			log.G(spanCtx).Error(err)
			return err
		}
		_, err = w.Write(output)
		return err
	}

	interval := time.Duration(m.Config.FollowInterval) * time.Second
	if interval <= 0 {
		interval = 4 * time.Second
	}

	offset := 0
	for {
		output, err := os.ReadFile(outputPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// the job has not started writing yet, keep waiting
			log.G(spanCtx).Debug("Output file " + outputPath + " does not exist yet, sleeping before retrying...")
		case err != nil:
			log.G(spanCtx).Error(err)
			return err
		default:
			if len(output) > offset {
				if _, err := w.Write(output[offset:]); err != nil {
					return err
				}
				offset = len(output)
			}
		}

		// the status file marks the end of the job, thus the end of following
		if _, err := os.Stat(statusPath); err == nil {
			output, err := os.ReadFile(outputPath)
			if err == nil && len(output) > offset {
				if _, err := w.Write(output[offset:]); err != nil {
					return err
				}
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

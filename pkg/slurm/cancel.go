package slurm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/containerd/containerd/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"

	"github.com/aalto-cbir/caption-tools/pkg/common"
)

// Cancel runs a scancel command for the submission, then removes its job ID
// from the map and all the related files on the disk.
// Returns the first encountered error.
func (m *Manager) Cancel(ctx context.Context, uid string) error {
	start := time.Now().UnixMicro()
	tracer := otel.Tracer("captools-API")
	spanCtx, span := tracer.Start(ctx, "Cancel", trace.WithAttributes(
		attribute.Int64("start.timestamp", start),
	))
	defer span.End()
	defer common.SetDurationSpan(start, span)

	sub, ok := m.Subs[uid]
	if !ok {
		return fmt.Errorf("unknown submission %s", uid)
	}
	span.SetAttributes(attribute.String("cancel.jid", sub.JID))

	log.G(spanCtx).Info("- Deleting Job " + sub.JID)
	_, err := exec.Command(m.Config.Scancelpath, sub.JID).Output()
	if err != nil {
		log.G(spanCtx).Error(err)
		return err
	}
	log.G(spanCtx).Info("- Deleted Job ", sub.JID)

	delete(m.Subs, uid)
	return os.RemoveAll(m.submissionDir(sub))
}

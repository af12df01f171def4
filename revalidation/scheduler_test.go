package revalidation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conduit-ucpi/walletauth/core"
)

type captureEnqueuer struct {
	messages []*core.RevalidateMessage
	failNext error
}

func (e *captureEnqueuer) Enqueue(_ context.Context, msg *core.RevalidateMessage) error {
	if e.failNext != nil {
		err := e.failNext
		e.failNext = nil
		return err
	}
	e.messages = append(e.messages, msg)
	return nil
}

func TestSchedulerScheduleEnqueuesRun(t *testing.T) {
	ctx := context.Background()
	enqueuer := &captureEnqueuer{}
	scheduler := NewScheduler(NewMemoryRunStore(), enqueuer)

	run, err := scheduler.Schedule(ctx, RunModeStartup, "", map[string]any{"trigger": "boot"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if run.Status != RunStatusQueued || run.Slot != "default" {
		t.Fatalf("unexpected run %+v", run)
	}
	if len(enqueuer.messages) != 1 {
		t.Fatalf("expected one enqueued message, got %d", len(enqueuer.messages))
	}
	msg := enqueuer.messages[0]
	if msg.JobID != JobID {
		t.Fatalf("expected job id %q, got %q", JobID, msg.JobID)
	}
	if msg.IdempotencyKey != run.ID {
		t.Fatalf("expected run id as idempotency key")
	}
	if msg.Parameters["mode"] != RunModeStartup {
		t.Fatalf("expected mode parameter, got %#v", msg.Parameters)
	}
}

func TestSchedulerRejectsUnknownMode(t *testing.T) {
	scheduler := NewScheduler(NewMemoryRunStore(), nil)
	if _, err := scheduler.Schedule(context.Background(), "eager", "default", nil); err == nil {
		t.Fatalf("expected unsupported mode rejection")
	}
}

func TestSchedulerEnqueueFailureMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRunStore()
	enqueuer := &captureEnqueuer{failNext: errors.New("queue unavailable")}
	scheduler := NewScheduler(store, enqueuer)

	run, err := scheduler.Schedule(ctx, RunModeScheduled, "default", nil)
	if err == nil {
		t.Fatalf("expected enqueue failure to surface")
	}
	if run.Status != RunStatusFailed {
		t.Fatalf("expected failed run, got %+v", run)
	}
	stored, getErr := store.Get(ctx, run.ID)
	if getErr != nil {
		t.Fatalf("get run: %v", getErr)
	}
	if stored.Metadata["last_error"] != "queue unavailable" {
		t.Fatalf("expected failure metadata, got %#v", stored.Metadata)
	}
}

func TestSchedulerRunLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRunStore()
	scheduler := NewScheduler(store, &captureEnqueuer{})
	scheduler.Now = func() time.Time { return now }

	run, err := scheduler.Schedule(ctx, RunModePushed, "default", nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	running, err := scheduler.MarkRunning(ctx, run.ID)
	if err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if running.Status != RunStatusRunning || running.Attempts != 1 {
		t.Fatalf("unexpected running state %+v", running)
	}

	retryAt := now.Add(time.Minute)
	failed, err := scheduler.Fail(ctx, run.ID, errors.New("backend timeout"), &retryAt)
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if failed.Status != RunStatusFailed || failed.NextAttemptAt == nil || !failed.NextAttemptAt.Equal(retryAt) {
		t.Fatalf("unexpected failed state %+v", failed)
	}

	completed, err := scheduler.Complete(ctx, run.ID, map[string]any{"session": "restored"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != RunStatusSucceeded || completed.NextAttemptAt != nil {
		t.Fatalf("unexpected completed state %+v", completed)
	}
	if completed.Metadata["session"] != "restored" {
		t.Fatalf("expected completion metadata, got %#v", completed.Metadata)
	}
}

func TestSchedulerResumeRequeuesFailedRun(t *testing.T) {
	ctx := context.Background()
	enqueuer := &captureEnqueuer{}
	store := NewMemoryRunStore()
	scheduler := NewScheduler(store, enqueuer)

	run, err := scheduler.Schedule(ctx, RunModeScheduled, "default", nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := scheduler.MarkRunning(ctx, run.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if _, err := scheduler.Fail(ctx, run.ID, errors.New("flaky"), nil); err != nil {
		t.Fatalf("fail: %v", err)
	}

	resumed, err := scheduler.Resume(ctx, run.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != RunStatusQueued {
		t.Fatalf("expected requeued run, got %+v", resumed)
	}
	if len(enqueuer.messages) != 2 {
		t.Fatalf("expected resume to enqueue again, got %d messages", len(enqueuer.messages))
	}
	if enqueuer.messages[1].IdempotencyKey == enqueuer.messages[0].IdempotencyKey {
		t.Fatalf("expected a fresh idempotency key for the retry")
	}

	if _, err := scheduler.Complete(ctx, run.ID, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	settled, err := scheduler.Resume(ctx, run.ID)
	if err != nil {
		t.Fatalf("resume succeeded run: %v", err)
	}
	if settled.Status != RunStatusSucceeded || len(enqueuer.messages) != 2 {
		t.Fatalf("expected succeeded run to be left alone, got %+v", settled)
	}
}

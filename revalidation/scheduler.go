// Package revalidation tracks background session revalidation runs and
// hands the work to a queue through the enqueuer contract. Run records give
// operators a trail of when sessions were re-verified and why retries
// happened.
package revalidation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-ucpi/walletauth/core"
)

const (
	RunModeStartup   = "startup"
	RunModeScheduled = "scheduled"
	RunModePushed    = "pushed"
)

const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// JobID is the queue job revalidation runs enqueue under.
const JobID = "walletauth.session.revalidate"

type Run struct {
	ID            string
	Slot          string
	Mode          string
	Status        string
	Attempts      int
	NextAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Metadata      map[string]any
}

type RunStore interface {
	Create(ctx context.Context, run Run) (Run, error)
	Get(ctx context.Context, id string) (Run, error)
	Update(ctx context.Context, run Run) (Run, error)
}

type Scheduler struct {
	Runs     RunStore
	Enqueuer core.RevalidateEnqueuer
	Now      func() time.Time
}

func NewScheduler(runs RunStore, enqueuer core.RevalidateEnqueuer) *Scheduler {
	return &Scheduler{
		Runs:     runs,
		Enqueuer: enqueuer,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Schedule records a queued run and enqueues the revalidation job. The run
// id doubles as the idempotency key so a crashed scheduler cannot enqueue
// the same run twice.
func (s *Scheduler) Schedule(ctx context.Context, mode string, slot string, metadata map[string]any) (Run, error) {
	if s == nil || s.Runs == nil {
		return Run{}, fmt.Errorf("revalidation: scheduler requires a run store")
	}
	mode = strings.TrimSpace(strings.ToLower(mode))
	switch mode {
	case RunModeStartup, RunModeScheduled, RunModePushed:
	default:
		return Run{}, fmt.Errorf("revalidation: unsupported run mode %q", mode)
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		slot = "default"
	}

	now := s.now()
	run := Run{
		ID:        uuid.NewString(),
		Slot:      slot,
		Mode:      mode,
		Status:    RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  mergeAnyMap(nil, metadata),
	}
	run, err := s.Runs.Create(ctx, run)
	if err != nil {
		return Run{}, err
	}

	if s.Enqueuer != nil {
		err := s.Enqueuer.Enqueue(ctx, &core.RevalidateMessage{
			JobID: JobID,
			Parameters: map[string]any{
				"run_id": run.ID,
				"slot":   run.Slot,
				"mode":   run.Mode,
			},
			IdempotencyKey: run.ID,
			DedupPolicy:    "drop",
		})
		if err != nil {
			failed, failErr := s.Fail(ctx, run.ID, err, nil)
			if failErr != nil {
				return Run{}, failErr
			}
			return failed, fmt.Errorf("revalidation: enqueue run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

// MarkRunning transitions a claimed run; workers call this on dequeue.
func (s *Scheduler) MarkRunning(ctx context.Context, runID string) (Run, error) {
	if s == nil || s.Runs == nil {
		return Run{}, fmt.Errorf("revalidation: scheduler requires a run store")
	}
	run, err := s.Runs.Get(ctx, strings.TrimSpace(runID))
	if err != nil {
		return Run{}, err
	}
	run.Status = RunStatusRunning
	run.Attempts++
	run.UpdatedAt = s.now()
	return s.Runs.Update(ctx, run)
}

func (s *Scheduler) Complete(ctx context.Context, runID string, metadata map[string]any) (Run, error) {
	if s == nil || s.Runs == nil {
		return Run{}, fmt.Errorf("revalidation: scheduler requires a run store")
	}
	run, err := s.Runs.Get(ctx, strings.TrimSpace(runID))
	if err != nil {
		return Run{}, err
	}
	run.Status = RunStatusSucceeded
	run.NextAttemptAt = nil
	run.UpdatedAt = s.now()
	run.Metadata = mergeAnyMap(run.Metadata, metadata)
	return s.Runs.Update(ctx, run)
}

func (s *Scheduler) Fail(ctx context.Context, runID string, cause error, nextAttemptAt *time.Time) (Run, error) {
	if s == nil || s.Runs == nil {
		return Run{}, fmt.Errorf("revalidation: scheduler requires a run store")
	}
	run, err := s.Runs.Get(ctx, strings.TrimSpace(runID))
	if err != nil {
		return Run{}, err
	}
	run.Status = RunStatusFailed
	run.UpdatedAt = s.now()
	run.Metadata = mergeAnyMap(run.Metadata, map[string]any{
		"last_error": strings.TrimSpace(fmt.Sprint(cause)),
	})
	if nextAttemptAt != nil {
		value := nextAttemptAt.UTC()
		run.NextAttemptAt = &value
	}
	return s.Runs.Update(ctx, run)
}

// Resume requeues a failed run and enqueues it again. Succeeded runs are
// left alone.
func (s *Scheduler) Resume(ctx context.Context, runID string) (Run, error) {
	if s == nil || s.Runs == nil {
		return Run{}, fmt.Errorf("revalidation: scheduler requires a run store")
	}
	run, err := s.Runs.Get(ctx, strings.TrimSpace(runID))
	if err != nil {
		return Run{}, err
	}
	if run.Status == RunStatusSucceeded {
		return run, nil
	}
	run.Status = RunStatusQueued
	run.NextAttemptAt = nil
	run.UpdatedAt = s.now()
	run, err = s.Runs.Update(ctx, run)
	if err != nil {
		return Run{}, err
	}

	if s.Enqueuer != nil {
		err := s.Enqueuer.Enqueue(ctx, &core.RevalidateMessage{
			JobID: JobID,
			Parameters: map[string]any{
				"run_id": run.ID,
				"slot":   run.Slot,
				"mode":   run.Mode,
			},
			IdempotencyKey: run.ID + ":" + fmt.Sprint(run.Attempts),
			DedupPolicy:    "drop",
		})
		if err != nil {
			return Run{}, fmt.Errorf("revalidation: re-enqueue run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func (s *Scheduler) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func mergeAnyMap(base map[string]any, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	return out
}

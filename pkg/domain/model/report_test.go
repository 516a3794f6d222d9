package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
)

func TestSessionReport(t *testing.T) {
	began := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	report := &model.SessionReport{
		ID:      types.NewSessionID(),
		BeganAt: began,
		EndedAt: began.Add(90 * time.Second),
		Results: []model.ArtifactResult{
			{Name: "diffusion", State: model.StateFetched, Bytes: 1 << 30},
			{Name: "vae", State: model.StateSkipped},
			{Name: "text_encoder", State: model.StateFetched, Bytes: 2 << 30},
			{Name: "clip_vision", State: model.StateFailed, Error: "all candidate sources exhausted"},
		},
	}

	t.Run("counts by state", func(t *testing.T) {
		gt.Number(t, report.CountByState(model.StateFetched)).Equal(2)
		gt.Number(t, report.CountByState(model.StateSkipped)).Equal(1)
		gt.Number(t, report.CountByState(model.StateFailed)).Equal(1)
		gt.Number(t, report.CountByState(model.StatePending)).Equal(0)
	})

	t.Run("sums transferred bytes", func(t *testing.T) {
		gt.Number(t, report.TotalBytes()).Equal(3 << 30)
	})

	t.Run("collects failures", func(t *testing.T) {
		failed := report.Failed()
		gt.Value(t, len(failed)).Equal(1)
		gt.Value(t, failed[0].Name).Equal("clip_vision")
		gt.Value(t, report.HasFailure()).Equal(true)
	})

	t.Run("duration from wall clock", func(t *testing.T) {
		gt.Value(t, report.Duration()).Equal(90 * time.Second)
	})

	t.Run("clean report has no failure", func(t *testing.T) {
		clean := &model.SessionReport{Results: []model.ArtifactResult{
			{Name: "vae", State: model.StateSkipped},
		}}
		gt.Value(t, clean.HasFailure()).Equal(false)
		gt.Value(t, len(clean.Failed())).Equal(0)
	})
}

func TestTransferAttempt_Duration(t *testing.T) {
	started := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	attempt := model.TransferAttempt{
		ID:        types.NewAttemptID(),
		StartedAt: started,
		EndedAt:   started.Add(42 * time.Second),
	}
	gt.Value(t, attempt.Duration()).Equal(42 * time.Second)
}

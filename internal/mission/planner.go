package mission

import (
	"context"
	"fmt"
	"log/slog"
)

// Uploader is the slice of the vehicle link the planner drives. The
// return-to-launch flag must be set before the upload so the vehicle
// ends the mission accordingly.
type Uploader interface {
	SetReturnToLaunchAfterMission(bool)
	UploadMission(ctx context.Context, plan *Plan) error
	StartMission(ctx context.Context) error
}

// Planner validates mission point batches and drives the
// upload-then-start sequence against the vehicle link.
type Planner struct {
	uploader Uploader
	logger   *slog.Logger
}

func NewPlanner(uploader Uploader, logger *slog.Logger) *Planner {
	return &Planner{uploader: uploader, logger: logger}
}

// Initiate validates the batch, builds the plan and runs configure →
// upload → start. Validation failures abort before any vehicle
// interaction. A failure during upload or start is returned as-is; a
// partially uploaded mission is not rolled back.
func (p *Planner) Initiate(ctx context.Context, points []Point, returnToLaunch bool) error {
	if err := Validate(points); err != nil {
		return err
	}

	plan := NewPlan(points, returnToLaunch)
	p.uploader.SetReturnToLaunchAfterMission(returnToLaunch)

	p.logger.Info("uploading mission", "points", plan.Len(), "return_to_launch", returnToLaunch)
	if err := p.uploader.UploadMission(ctx, plan); err != nil {
		return fmt.Errorf("upload mission: %w", err)
	}

	p.logger.Info("starting mission")
	if err := p.uploader.StartMission(ctx); err != nil {
		return fmt.Errorf("start mission: %w", err)
	}

	return nil
}

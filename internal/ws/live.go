package ws

import (
	"context"

	"olo_mining/internal/service"
)

// LiveView builds the periodic frames from the mining and task services.
type LiveView struct {
	Mining *service.MiningService
	Tasks  *service.TaskService
}

// Snapshot returns the mining state and, while one is running, the task countdown.
func (v LiveView) Snapshot(ctx context.Context, installID string) ([]Frame, error) {
	st, err := v.Mining.Status(ctx, installID)
	if err != nil {
		return nil, err
	}
	frames := []Frame{{Type: FrameMining, Data: st}}
	if cur := v.Tasks.Current(installID); cur != nil {
		frames = append(frames, Frame{Type: FrameTask, Data: cur})
	}
	return frames, nil
}

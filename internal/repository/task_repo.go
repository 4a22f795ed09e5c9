package repository

import (
	"context"

	"olo_mining/internal/domain"
)

// GetTasks returns the stored task list or the seed list. The seed is not persisted.
func (r *Install) GetTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	found, err := r.load(ctx, domain.KeyTasks, &tasks)
	if err != nil {
		return nil, err
	}
	if !found {
		tasks = make([]domain.Task, len(r.seed))
		copy(tasks, r.seed)
	}
	return tasks, nil
}

func (r *Install) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	return r.Batch().Tasks(tasks).Commit(ctx)
}

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"olo_mining/internal/domain"
	"olo_mining/internal/logger"
	"olo_mining/internal/metrics"
	"olo_mining/internal/repository"

	"github.com/shopspring/decimal"
)

// Verification is the countdown of the one task being verified in an install.
type Verification struct {
	TaskID    string `json:"task_id"`
	Remaining int    `json:"remaining"`
}

// TaskCompletion is reported once a countdown reaches zero and the reward is paid.
type TaskCompletion struct {
	InstallID string          `json:"-"`
	Task      domain.Task     `json:"task"`
	Balance   decimal.Decimal `json:"balance"`
}

type VerifyResult struct {
	Task      domain.Task `json:"task"`
	Remaining int         `json:"remaining"`
	// Link to open, nil for tasks without one.
	Link *string `json:"link"`
}

// TaskService runs the verification countdowns. Countdowns live in memory only;
// a restart drops them, as a page reload does.
type TaskService struct {
	installs *repository.Installs
	audit    *AuditService
	seconds  int
	log      *slog.Logger

	mu         sync.Mutex
	inFlight   map[string]*Verification // install id -> countdown
	onComplete []func(TaskCompletion)
}

func NewTaskService(installs *repository.Installs, audit *AuditService, seconds int) *TaskService {
	if seconds <= 0 {
		seconds = 10
	}
	return &TaskService{
		installs: installs,
		audit:    audit,
		seconds:  seconds,
		log:      logger.Component("tasks"),
		inFlight: make(map[string]*Verification),
	}
}

// OnComplete registers a callback run after each paid completion.
func (s *TaskService) OnComplete(fn func(TaskCompletion)) {
	s.mu.Lock()
	s.onComplete = append(s.onComplete, fn)
	s.mu.Unlock()
}

// List returns the install's tasks and its running countdown, if any.
func (s *TaskService) List(ctx context.Context, installID string) ([]domain.Task, *Verification, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	tasks, err := s.installs.Open(installID).GetTasks(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tasks, s.Current(installID), nil
}

// Current returns a copy of the install's countdown, or nil.
func (s *TaskService) Current(installID string) *Verification {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.inFlight[installID]
	if !ok {
		return nil
	}
	c := *v
	return &c
}

// Verify starts the countdown for taskID. Only one countdown may run per install.
func (s *TaskService) Verify(ctx context.Context, installID, taskID string) (*VerifyResult, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	u, err := r.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	tasks, err := r.GetTasks(ctx)
	if err != nil {
		return nil, err
	}
	task, ok := findTask(tasks, taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	if task.IsCompleted {
		return nil, ErrTaskCompleted
	}

	s.mu.Lock()
	if _, busy := s.inFlight[installID]; busy {
		s.mu.Unlock()
		return nil, ErrVerificationInFlight
	}
	s.inFlight[installID] = &Verification{TaskID: taskID, Remaining: s.seconds}
	s.mu.Unlock()

	s.audit.Log(ctx, installID, domain.AuditActionTaskVerify, domain.AuditCategoryTask, map[string]any{
		"task_id": taskID,
	})

	res := &VerifyResult{Task: task, Remaining: s.seconds}
	if task.HasLink() {
		link := task.Link
		res.Link = &link
	}
	return res, nil
}

// Tick advances every countdown by one step and pays out the ones that reach zero.
func (s *TaskService) Tick(ctx context.Context) {
	var done []string
	var finished []Verification

	s.mu.Lock()
	for id, v := range s.inFlight {
		v.Remaining--
		if v.Remaining <= 0 {
			done = append(done, id)
			finished = append(finished, *v)
			delete(s.inFlight, id)
		}
	}
	callbacks := append([]func(TaskCompletion){}, s.onComplete...)
	s.mu.Unlock()

	for i, installID := range done {
		c, err := s.complete(ctx, installID, finished[i].TaskID)
		if err != nil {
			s.log.Error("task completion failed", "install_id", installID, "task_id", finished[i].TaskID, "error", err)
			continue
		}
		if c == nil {
			continue
		}
		for _, fn := range callbacks {
			fn(*c)
		}
	}
}

// complete marks the task done and credits its reward in one write. A task
// deleted or completed while counting down pays nothing.
func (s *TaskService) complete(ctx context.Context, installID, taskID string) (*TaskCompletion, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	tasks, err := r.GetTasks(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range tasks {
		if tasks[i].ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 || tasks[idx].IsCompleted {
		s.log.Info("countdown finished for unavailable task", "install_id", installID, "task_id", taskID)
		return nil, nil
	}

	u, err := r.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	tasks[idx].IsCompleted = true
	u.Balance = credit(u.Balance, tasks[idx].Reward)

	if err := r.Batch().User(u).Tasks(tasks).Commit(ctx); err != nil {
		return nil, err
	}

	metrics.TasksCompleted.Inc()
	s.audit.Log(ctx, installID, domain.AuditActionTaskComplete, domain.AuditCategoryTask, map[string]any{
		"task_id": taskID,
		"reward":  tasks[idx].Reward.String(),
		"user_id": u.ID,
	})
	return &TaskCompletion{InstallID: installID, Task: tasks[idx], Balance: u.Balance}, nil
}

// Run ticks every interval until ctx is done.
func (s *TaskService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func findTask(tasks []domain.Task, id string) (domain.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"olo_mining/internal/domain"
	"olo_mining/internal/kv"
	"olo_mining/internal/logger"
)

// Installs hands out per-install repositories over one blob store.
type Installs struct {
	store kv.Store
	seed  []domain.Task
	locks sync.Map // namespace -> *sync.Mutex
	log   *slog.Logger
}

// NewInstalls uses seed as the task list of installs that have none stored.
// A nil seed means domain.SeedTasks.
func NewInstalls(store kv.Store, seed []domain.Task) *Installs {
	if seed == nil {
		seed = domain.SeedTasks()
	}
	return &Installs{
		store: store,
		seed:  seed,
		log:   logger.Component("repository"),
	}
}

// Store exposes the underlying blob store (health checks).
func (i *Installs) Store() kv.Store {
	return i.store
}

// Lock serializes work on one install, the way a single browser tab runs one
// thing at a time. The returned func releases the lock.
// Mutexes are never evicted: one small entry per install seen by this process.
func (i *Installs) Lock(namespace string) func() {
	m, _ := i.locks.LoadOrStore(namespace, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Open returns the repository of one install. It is cheap and holds no state.
func (i *Installs) Open(namespace string) *Install {
	return &Install{
		store: i.store,
		ns:    namespace,
		seed:  i.seed,
		log:   i.log.With("install_id", namespace),
	}
}

// Install is typed, synchronous access to the blobs of one install.
type Install struct {
	store kv.Store
	ns    string
	seed  []domain.Task
	log   *slog.Logger
}

func (r *Install) Namespace() string {
	return r.ns
}

func (r *Install) key(k string) string {
	return kv.Key(r.ns, k)
}

// load decodes key into out. found is false when the key is absent or the blob
// is malformed; callers then use the default for that key.
func (r *Install) load(ctx context.Context, k string, out any) (found bool, err error) {
	raw, err := r.store.Get(ctx, r.key(k))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", k, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.log.Warn("malformed blob, using default", "key", k, "error", err)
		return false, nil
	}
	return true, nil
}

func (r *Install) entry(k string, v any) (kv.Entry, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return kv.Entry{}, fmt.Errorf("encode %s: %w", k, err)
	}
	return kv.Entry{Key: r.key(k), Value: b}, nil
}

// Batch collects writes to several keys so they land in one store call.
type Batch struct {
	r       *Install
	user    *domain.User
	users   []domain.User
	entries []kv.Entry
	err     error
}

func (r *Install) Batch() *Batch {
	return &Batch{r: r}
}

func (b *Batch) add(k string, v any) *Batch {
	if b.err != nil {
		return b
	}
	e, err := b.r.entry(k, v)
	if err != nil {
		b.err = err
		return b
	}
	b.entries = append(b.entries, e)
	return b
}

// User stages the active user; Commit also refreshes its row in the all-users list.
func (b *Batch) User(u *domain.User) *Batch {
	b.user = u
	return b
}

// AllUsers stages the admin aggregate; if it contains the active user, Commit
// writes that row back to the active user record too.
func (b *Batch) AllUsers(users []domain.User) *Batch {
	b.users = users
	return b
}

func (b *Batch) Tasks(tasks []domain.Task) *Batch {
	return b.add(domain.KeyTasks, tasks)
}

func (b *Batch) Withdrawals(list []domain.Withdrawal) *Batch {
	return b.add(domain.KeyWithdrawals, list)
}

func (b *Batch) Config(cfg domain.AppConfig) *Batch {
	return b.add(domain.KeyConfig, cfg)
}

func (b *Batch) Admin(v bool) *Batch {
	return b.add(domain.KeyAdmin, v)
}

// Commit resolves the user/aggregate synchronization and writes everything at once.
func (b *Batch) Commit(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}

	switch {
	case b.users != nil:
		users := b.users
		if b.user != nil {
			users = upsertUser(users, *b.user)
		}
		current := b.user
		if current == nil {
			cur, found, err := b.r.storedUser(ctx)
			if err != nil {
				return err
			}
			if found {
				current = cur
			}
		}
		if current != nil {
			for _, u := range users {
				if u.ID == current.ID {
					synced := u
					b.add(domain.KeyUser, &synced)
					break
				}
			}
		}
		b.add(domain.KeyAllUsers, users)

	case b.user != nil:
		users, err := b.r.GetAllUsers(ctx)
		if err != nil {
			return err
		}
		b.add(domain.KeyUser, b.user)
		b.add(domain.KeyAllUsers, upsertUser(users, *b.user))
	}

	if b.err != nil {
		return b.err
	}
	if len(b.entries) == 0 {
		return nil
	}
	return b.r.store.Put(ctx, b.entries...)
}

func upsertUser(users []domain.User, u domain.User) []domain.User {
	out := make([]domain.User, len(users), len(users)+1)
	copy(out, users)
	for i := range out {
		if out[i].ID == u.ID {
			out[i] = u
			return out
		}
	}
	return append(out, u)
}

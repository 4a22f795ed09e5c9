package repository

import (
	"context"

	"olo_mining/internal/domain"
	"olo_mining/internal/kv"
)

func (r *Install) storedUser(ctx context.Context) (*domain.User, bool, error) {
	var u domain.User
	found, err := r.load(ctx, domain.KeyUser, &u)
	if err != nil || !found {
		return nil, false, err
	}
	return &u, true, nil
}

// GetUser returns the active user, creating and persisting a default one when
// the install has none (or its blob is unreadable).
func (r *Install) GetUser(ctx context.Context) (*domain.User, error) {
	return r.EnsureUser(ctx, "", "")
}

// EnsureUser is GetUser with the identity to give a newly created user.
func (r *Install) EnsureUser(ctx context.Context, telegramID, username string) (*domain.User, error) {
	u, found, err := r.storedUser(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		return u, nil
	}

	u = domain.NewUser(telegramID, username)
	e, err := r.entry(domain.KeyUser, u)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, e); err != nil {
		return nil, err
	}
	r.log.Info("user created", "user_id", u.ID)
	return u, nil
}

// SaveUser writes the active user and its row in the all-users list together.
func (r *Install) SaveUser(ctx context.Context, u *domain.User) error {
	return r.Batch().User(u).Commit(ctx)
}

// GetAllUsers returns the admin aggregate, or just the active user if none is stored.
func (r *Install) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	found, err := r.load(ctx, domain.KeyAllUsers, &users)
	if err != nil {
		return nil, err
	}
	if found {
		return users, nil
	}

	u, err := r.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	return []domain.User{*u}, nil
}

// SaveAllUsers writes the aggregate, propagating the active user's row.
func (r *Install) SaveAllUsers(ctx context.Context, users []domain.User) error {
	return r.Batch().AllUsers(users).Commit(ctx)
}

// FindUser looks a user up in the aggregate.
func (r *Install) FindUser(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, kv.ErrNotFound
}

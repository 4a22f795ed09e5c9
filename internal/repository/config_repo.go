package repository

import (
	"context"

	"olo_mining/internal/domain"
)

// GetConfig returns the stored AppConfig or the defaults.
func (r *Install) GetConfig(ctx context.Context) (domain.AppConfig, error) {
	cfg := domain.DefaultConfig()
	var stored domain.AppConfig
	found, err := r.load(ctx, domain.KeyConfig, &stored)
	if err != nil {
		return cfg, err
	}
	if found {
		cfg = stored
	}
	return cfg, nil
}

func (r *Install) SaveConfig(ctx context.Context, cfg domain.AppConfig) error {
	return r.Batch().Config(cfg).Commit(ctx)
}

// IsAdmin reports the persisted admin-session flag.
func (r *Install) IsAdmin(ctx context.Context) (bool, error) {
	var v bool
	if _, err := r.load(ctx, domain.KeyAdmin, &v); err != nil {
		return false, err
	}
	return v, nil
}

func (r *Install) SetAdmin(ctx context.Context, v bool) error {
	return r.Batch().Admin(v).Commit(ctx)
}

package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/app/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) Create(ctx context.Context, app *domain.App) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.App, error) {
	var app domain.App
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("App", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repo) ListByTenant(ctx context.Context, tenantID snowflake.ID, includeArchived bool) ([]domain.App, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !includeArchived {
		query = query.Where("status = ?", domain.StatusNormal)
	}

	var apps []domain.App
	if err := query.Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.App{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("App", id.String())
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.App{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("App", id.String())
	}
	return nil
}

func (r *repo) CreateConfig(ctx context.Context, cfg *domain.ModelConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *repo) FindConfigByApp(ctx context.Context, appID snowflake.ID) (*domain.ModelConfig, error) {
	var cfg domain.ModelConfig
	err := r.db.WithContext(ctx).Where("app_id = ?", appID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReplaceConfig swaps the app's config row for a new one inside a
// transaction so the app never observes two configs.
func (r *repo) ReplaceConfig(ctx context.Context, cfg *domain.ModelConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("app_id = ?", cfg.AppID).Delete(&domain.ModelConfig{}).Error; err != nil {
			return err
		}
		return tx.Create(cfg).Error
	})
}

func (r *repo) DeleteConfigByApp(ctx context.Context, appID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("app_id = ?", appID).Delete(&domain.ModelConfig{}).Error
}

package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/modelprovider/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, provider *domain.ModelProvider) error {
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.ModelProvider, error) {
	var provider domain.ModelProvider
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("ModelProvider", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *repo) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.ModelProvider, error) {
	var providers []domain.ModelProvider
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *repo) ActiveNameExists(ctx context.Context, tenantID snowflake.ID, name string, excludeID snowflake.ID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.ModelProvider{}).
		Where("tenant_id = ? AND name = ? AND is_active = ?", tenantID, name, true)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.ModelProvider{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("ModelProvider", id.String())
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ModelProvider{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("ModelProvider", id.String())
	}
	return nil
}

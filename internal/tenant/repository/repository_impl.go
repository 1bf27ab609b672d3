package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/tenant/domain"
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

func (r *repo) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Tenant", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("Tenant", id.String())
	}
	return nil
}

func (r *repo) AddMember(ctx context.Context, join *domain.TenantAccountJoin) error {
	return r.db.WithContext(ctx).Create(join).Error
}

func (r *repo) RemoveMember(ctx context.Context, tenantID, accountID snowflake.ID) error {
	tx := r.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Delete(&domain.TenantAccountJoin{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("Member", accountID.String())
	}
	return nil
}

func (r *repo) UpdateMemberRole(ctx context.Context, tenantID, accountID snowflake.ID, role domain.Role) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.TenantAccountJoin{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Update("role", role)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("Member", accountID.String())
	}
	return nil
}

func (r *repo) MemberRole(ctx context.Context, tenantID, accountID snowflake.ID) (domain.Role, bool, error) {
	var join domain.TenantAccountJoin
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		First(&join).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return join.Role, true, nil
}

func (r *repo) ListMembers(ctx context.Context, tenantID snowflake.ID) ([]domain.MemberListItem, error) {
	var items []domain.MemberListItem
	err := r.db.WithContext(ctx).
		Table("tenant_account_joins").
		Select("accounts.id AS account_id, accounts.email, accounts.name, tenant_account_joins.role, tenant_account_joins.created_at AS joined_at").
		Joins("JOIN accounts ON accounts.id = tenant_account_joins.account_id").
		Where("tenant_account_joins.tenant_id = ?", tenantID).
		Order("tenant_account_joins.created_at ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListTenantsByAccount(ctx context.Context, accountID snowflake.ID) ([]domain.TenantListItem, error) {
	var items []domain.TenantListItem
	err := r.db.WithContext(ctx).
		Table("tenants").
		Select("tenants.id, tenants.name, tenants.slug, tenants.plan, tenants.status, tenant_account_joins.role, tenants.created_at").
		Joins("JOIN tenant_account_joins ON tenant_account_joins.tenant_id = tenants.id").
		Where("tenant_account_joins.account_id = ?", accountID).
		Order("tenants.created_at ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

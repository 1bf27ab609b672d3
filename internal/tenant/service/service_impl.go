package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	"github.com/craftwork/polaris/internal/tenant/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/craftwork/polaris/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTenantNameLength = 100

type Service struct {
	log      *zap.Logger
	db       *gorm.DB
	repo     domain.Repository
	accounts accountdomain.Repository
	genID    *snowflake.Node
}

func New(log *zap.Logger, gdb *gorm.DB, repo domain.Repository, accounts accountdomain.Repository, genID *snowflake.Node) domain.Service {
	return &Service{
		log:      log.Named("tenant.service"),
		db:       gdb,
		repo:     repo,
		accounts: accounts,
		genID:    genID,
	}
}

func (s *Service) CreateTenant(ctx context.Context, req domain.CreateTenantRequest) (*domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("Tenant name is required")
	}
	if len(name) > maxTenantNameLength {
		return nil, apperr.Validation("Tenant name must not exceed 100 characters")
	}

	plan := req.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	if !plan.Valid() {
		return nil, apperr.Validation("Invalid plan: " + string(plan))
	}

	if _, err := s.accounts.FindByID(ctx, req.OwnerAccountID); err != nil {
		return nil, err
	}

	exists, err := s.repo.NameExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("Tenant name already exists: " + name)
	}

	tenant := &domain.Tenant{
		ID:     s.genID.Generate(),
		Name:   name,
		Slug:   slug.Make(name),
		Plan:   plan,
		Status: domain.StatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		return repo.AddMember(ctx, &domain.TenantAccountJoin{
			ID:        s.genID.Generate(),
			TenantID:  tenant.ID,
			AccountID: req.OwnerAccountID,
			Role:      domain.RoleOwner,
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, apperr.Conflict("Tenant name already exists: " + name)
		}
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("owner_account_id", req.OwnerAccountID.String()),
	)
	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID, accountID snowflake.ID) (*domain.Tenant, error) {
	if err := s.requireMember(ctx, tenantID, accountID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, tenantID)
}

func (s *Service) ListTenants(ctx context.Context, accountID snowflake.ID) ([]domain.TenantListItem, error) {
	return s.repo.ListTenantsByAccount(ctx, accountID)
}

// UpdateTenant applies partial updates. Only the owner may change tenant settings.
func (s *Service) UpdateTenant(ctx context.Context, tenantID, operatorID snowflake.ID, req domain.UpdateTenantRequest) (*domain.Tenant, error) {
	if err := s.requireRole(ctx, tenantID, operatorID, domain.RoleOwner); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("Tenant name is required")
		}
		if len(name) > maxTenantNameLength {
			return nil, apperr.Validation("Tenant name must not exceed 100 characters")
		}
		exists, err := s.repo.NameExists(ctx, name)
		if err != nil {
			return nil, err
		}
		current, err := s.repo.FindByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if exists && current.Name != name {
			return nil, apperr.Conflict("Tenant name already exists: " + name)
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
	}
	if req.Plan != nil {
		if !req.Plan.Valid() {
			return nil, apperr.Validation("Invalid plan: " + string(*req.Plan))
		}
		fields["plan"] = *req.Plan
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, tenantID, fields); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return nil, apperr.Conflict("Tenant name already exists")
			}
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, tenantID)
}

// AddMember requires the operator to be owner or admin. Owners can only be
// created through CreateTenant, never added afterwards.
func (s *Service) AddMember(ctx context.Context, tenantID, accountID snowflake.ID, role domain.Role, operatorID snowflake.ID) error {
	if !role.Valid() {
		return apperr.Validation("Invalid role: " + string(role))
	}
	if role == domain.RoleOwner {
		return apperr.Authorization("Cannot add a member with the owner role")
	}
	if _, err := s.repo.FindByID(ctx, tenantID); err != nil {
		return err
	}
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return err
	}
	if err := s.requireRole(ctx, tenantID, operatorID, domain.RoleAdmin); err != nil {
		return err
	}

	_, joined, err := s.repo.MemberRole(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if joined {
		return apperr.Conflict("Account is already a member of this tenant")
	}

	err = s.repo.AddMember(ctx, &domain.TenantAccountJoin{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		AccountID: accountID,
		Role:      role,
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return apperr.Conflict("Account is already a member of this tenant")
		}
		return err
	}

	s.log.Info("member added",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("role", string(role)),
	)
	return nil
}

// RemoveMember enforces the protection rules: the owner can never be removed,
// and an admin cannot remove another admin.
func (s *Service) RemoveMember(ctx context.Context, tenantID, accountID, operatorID snowflake.ID) error {
	if _, err := s.repo.FindByID(ctx, tenantID); err != nil {
		return err
	}

	operatorRole, joined, err := s.repo.MemberRole(ctx, tenantID, operatorID)
	if err != nil {
		return err
	}
	if !joined || !operatorRole.Covers(domain.RoleAdmin) {
		return apperr.Authorization("Only owner or admin can remove members")
	}

	targetRole, joined, err := s.repo.MemberRole(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !joined {
		return apperr.NotFound("Member", accountID.String())
	}
	if targetRole == domain.RoleOwner {
		return apperr.BusinessLogic("Cannot remove the tenant owner")
	}
	if operatorRole == domain.RoleAdmin && targetRole == domain.RoleAdmin {
		return apperr.Authorization("Admin cannot remove another admin")
	}

	if err := s.repo.RemoveMember(ctx, tenantID, accountID); err != nil {
		return err
	}

	s.log.Info("member removed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", accountID.String()),
	)
	return nil
}

// UpdateMemberRole is owner-only. Ownership is never transferable: the owner
// row cannot be changed and no member can be promoted to owner.
func (s *Service) UpdateMemberRole(ctx context.Context, tenantID, accountID snowflake.ID, newRole domain.Role, operatorID snowflake.ID) error {
	if !newRole.Valid() {
		return apperr.Validation("Invalid role: " + string(newRole))
	}
	if newRole == domain.RoleOwner {
		return apperr.BusinessLogic("Cannot promote a member to owner")
	}
	if _, err := s.repo.FindByID(ctx, tenantID); err != nil {
		return err
	}
	if err := s.requireRole(ctx, tenantID, operatorID, domain.RoleOwner); err != nil {
		return err
	}

	targetRole, joined, err := s.repo.MemberRole(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !joined {
		return apperr.NotFound("Member", accountID.String())
	}
	if targetRole == domain.RoleOwner {
		return apperr.BusinessLogic("Cannot change the owner's role")
	}

	if err := s.repo.UpdateMemberRole(ctx, tenantID, accountID, newRole); err != nil {
		return err
	}

	s.log.Info("member role updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("role", string(newRole)),
	)
	return nil
}

func (s *Service) GetMembers(ctx context.Context, tenantID snowflake.ID) ([]domain.MemberListItem, error) {
	return s.repo.ListMembers(ctx, tenantID)
}

func (s *Service) IsMember(ctx context.Context, tenantID, accountID snowflake.ID) (bool, error) {
	_, joined, err := s.repo.MemberRole(ctx, tenantID, accountID)
	return joined, err
}

func (s *Service) CheckPermission(ctx context.Context, tenantID, accountID snowflake.ID, required domain.Role) (bool, error) {
	role, joined, err := s.repo.MemberRole(ctx, tenantID, accountID)
	if err != nil {
		return false, err
	}
	if !joined {
		return false, nil
	}
	return role.Covers(required), nil
}

func (s *Service) requireMember(ctx context.Context, tenantID, accountID snowflake.ID) error {
	ok, err := s.IsMember(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Authorization("Not a member of this tenant")
	}
	return nil
}

func (s *Service) requireRole(ctx context.Context, tenantID, accountID snowflake.ID, required domain.Role) error {
	ok, err := s.CheckPermission(ctx, tenantID, accountID, required)
	if err != nil {
		return err
	}
	if !ok {
		switch required {
		case domain.RoleOwner:
			return apperr.Authorization("Only the tenant owner can perform this operation")
		case domain.RoleAdmin:
			return apperr.Authorization("Only owner or admin can perform this operation")
		default:
			return apperr.Authorization("Not a member of this tenant")
		}
	}
	return nil
}

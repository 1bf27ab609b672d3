package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error)
	GetTenant(ctx context.Context, tenantID, accountID snowflake.ID) (*Tenant, error)
	ListTenants(ctx context.Context, accountID snowflake.ID) ([]TenantListItem, error)
	UpdateTenant(ctx context.Context, tenantID, operatorID snowflake.ID, req UpdateTenantRequest) (*Tenant, error)

	AddMember(ctx context.Context, tenantID, accountID snowflake.ID, role Role, operatorID snowflake.ID) error
	RemoveMember(ctx context.Context, tenantID, accountID, operatorID snowflake.ID) error
	UpdateMemberRole(ctx context.Context, tenantID, accountID snowflake.ID, newRole Role, operatorID snowflake.ID) error
	GetMembers(ctx context.Context, tenantID snowflake.ID) ([]MemberListItem, error)

	IsMember(ctx context.Context, tenantID, accountID snowflake.ID) (bool, error)
	CheckPermission(ctx context.Context, tenantID, accountID snowflake.ID, required Role) (bool, error)
}

type CreateTenantRequest struct {
	Name           string
	OwnerAccountID snowflake.ID
	Plan           Plan
}

type UpdateTenantRequest struct {
	Name   *string
	Plan   *Plan
	Status *TenantStatus
}

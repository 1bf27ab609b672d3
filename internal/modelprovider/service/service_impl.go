package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/config"
	"github.com/craftwork/polaris/internal/modelprovider/domain"
	"github.com/craftwork/polaris/internal/modelruntime"
	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"go.uber.org/zap"
)

const maxProviderNameLength = 100

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	tenants  tenantdomain.Repository
	registry *modelruntime.Registry
	cipher   *CredentialCipher
	genID    *snowflake.Node
}

func New(log *zap.Logger, cfg config.Config, repo domain.Repository, tenants tenantdomain.Repository, registry *modelruntime.Registry, genID *snowflake.Node) (domain.Service, error) {
	cipher, err := NewCredentialCipher(cfg.CredentialSecret)
	if err != nil {
		return nil, err
	}
	return &Service{
		log:      log.Named("modelprovider.service"),
		repo:     repo,
		tenants:  tenants,
		registry: registry,
		cipher:   cipher,
		genID:    genID,
	}, nil
}

func (s *Service) AddProvider(ctx context.Context, req domain.AddProviderRequest) (*domain.ModelProvider, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("Provider name is required")
	}
	if len(name) > maxProviderNameLength {
		return nil, apperr.Validation("Provider name must not exceed 100 characters")
	}
	providerType := modelruntime.ProviderType(req.ProviderType)
	if !providerType.Valid() {
		return nil, apperr.Validation("Invalid provider type: " + req.ProviderType)
	}
	if len(req.Credentials) == 0 {
		return nil, apperr.Validation("Credentials are required")
	}

	if _, err := s.tenants.FindByID(ctx, req.TenantID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.TenantID, req.CreatedBy); err != nil {
		return nil, err
	}

	// Uniqueness only counts active rows; an inactive provider may share
	// the name.
	exists, err := s.repo.ActiveNameExists(ctx, req.TenantID, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("Provider name already in use: " + name)
	}

	if err := s.registry.ValidateCredentials(ctx, providerType, req.Credentials); err != nil {
		return nil, apperr.BusinessLogicWrap("Invalid credentials: "+err.Error(), err)
	}

	sealed, err := s.cipher.Seal(req.Credentials)
	if err != nil {
		return nil, err
	}

	provider := &domain.ModelProvider{
		ID:           s.genID.Generate(),
		TenantID:     req.TenantID,
		Name:         name,
		ProviderType: string(providerType),
		Credentials:  sealed,
		IsActive:     true,
		Config:       req.Config,
		QuotaConfig:  req.QuotaConfig,
		CreatedBy:    req.CreatedBy,
		UpdatedBy:    req.CreatedBy,
	}
	if err := s.repo.Create(ctx, provider); err != nil {
		return nil, err
	}

	s.log.Info("provider added",
		zap.String("provider_id", provider.ID.String()),
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("provider_type", provider.ProviderType),
	)
	return provider, nil
}

func (s *Service) GetProvider(ctx context.Context, providerID, accountID snowflake.ID) (*domain.ModelProvider, error) {
	return s.memberProvider(ctx, providerID, accountID)
}

func (s *Service) ListProviders(ctx context.Context, tenantID, accountID snowflake.ID) ([]domain.ModelProvider, error) {
	if _, err := s.tenants.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tenantID, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListByTenant(ctx, tenantID)
}

// UpdateProvider re-validates credentials only when new ones are supplied,
// and re-checks name uniqueness only when the name actually changes.
func (s *Service) UpdateProvider(ctx context.Context, providerID, accountID snowflake.ID, req domain.UpdateProviderRequest) (*domain.ModelProvider, error) {
	provider, err := s.memberProvider(ctx, providerID, accountID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_by": accountID}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("Provider name is required")
		}
		if len(name) > maxProviderNameLength {
			return nil, apperr.Validation("Provider name must not exceed 100 characters")
		}
		if name != provider.Name {
			exists, err := s.repo.ActiveNameExists(ctx, provider.TenantID, name, provider.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperr.Conflict("Provider name already in use: " + name)
			}
			fields["name"] = name
		}
	}

	if len(req.Credentials) > 0 {
		providerType := modelruntime.ProviderType(provider.ProviderType)
		if err := s.registry.ValidateCredentials(ctx, providerType, req.Credentials); err != nil {
			return nil, apperr.BusinessLogicWrap("Invalid credentials: "+err.Error(), err)
		}
		sealed, err := s.cipher.Seal(req.Credentials)
		if err != nil {
			return nil, err
		}
		fields["credentials"] = sealed
	}

	if req.Config != nil {
		fields["config"] = req.Config
	}
	if req.QuotaConfig != nil {
		fields["quota_config"] = req.QuotaConfig
	}

	if err := s.repo.UpdateFields(ctx, providerID, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, providerID)
}

func (s *Service) DeleteProvider(ctx context.Context, providerID, accountID snowflake.ID) error {
	provider, err := s.memberProvider(ctx, providerID, accountID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, providerID); err != nil {
		return err
	}

	s.log.Info("provider deleted",
		zap.String("provider_id", providerID.String()),
		zap.String("tenant_id", provider.TenantID.String()),
	)
	return nil
}

// ActivateProvider fails on an already-active provider; activation is not
// idempotent.
func (s *Service) ActivateProvider(ctx context.Context, providerID, accountID snowflake.ID) (*domain.ModelProvider, error) {
	provider, err := s.memberProvider(ctx, providerID, accountID)
	if err != nil {
		return nil, err
	}
	if provider.IsActive {
		return nil, apperr.BusinessLogic("Provider is already active")
	}

	exists, err := s.repo.ActiveNameExists(ctx, provider.TenantID, provider.Name, provider.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("An active provider with this name already exists: " + provider.Name)
	}

	if err := s.repo.UpdateFields(ctx, providerID, map[string]any{"is_active": true, "updated_by": accountID}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, providerID)
}

func (s *Service) DeactivateProvider(ctx context.Context, providerID, accountID snowflake.ID) (*domain.ModelProvider, error) {
	provider, err := s.memberProvider(ctx, providerID, accountID)
	if err != nil {
		return nil, err
	}
	if !provider.IsActive {
		return nil, apperr.BusinessLogic("Provider is already inactive")
	}

	if err := s.repo.UpdateFields(ctx, providerID, map[string]any{"is_active": false, "updated_by": accountID}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, providerID)
}

// TestConnection swallows adapter failures into the result instead of
// returning them, unlike AddProvider which wraps and raises.
func (s *Service) TestConnection(ctx context.Context, providerID, accountID snowflake.ID) (*domain.TestResult, error) {
	provider, err := s.memberProvider(ctx, providerID, accountID)
	if err != nil {
		return nil, err
	}

	creds, err := s.cipher.Open(provider.Credentials)
	if err != nil {
		return &domain.TestResult{Success: false, Message: "Failed to decrypt credentials: " + err.Error()}, nil
	}

	providerType := modelruntime.ProviderType(provider.ProviderType)
	if err := s.registry.ValidateCredentials(ctx, providerType, creds); err != nil {
		return &domain.TestResult{Success: false, Message: err.Error()}, nil
	}
	return &domain.TestResult{Success: true, Message: "Connection successful"}, nil
}

func (s *Service) memberProvider(ctx context.Context, providerID, accountID snowflake.ID) (*domain.ModelProvider, error) {
	provider, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, provider.TenantID, accountID); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *Service) requireMember(ctx context.Context, tenantID, accountID snowflake.ID) error {
	_, joined, err := s.tenants.MemberRole(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !joined {
		return apperr.Authorization("Not a member of this tenant")
	}
	return nil
}

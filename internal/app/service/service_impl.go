package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/app/domain"
	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxAppNameLength = 100

type Service struct {
	log     *zap.Logger
	db      *gorm.DB
	repo    domain.Repository
	tenants tenantdomain.Repository
	genID   *snowflake.Node
}

func New(log *zap.Logger, gdb *gorm.DB, repo domain.Repository, tenants tenantdomain.Repository, genID *snowflake.Node) domain.Service {
	return &Service{
		log:     log.Named("app.service"),
		db:      gdb,
		repo:    repo,
		tenants: tenants,
		genID:   genID,
	}
}

func (s *Service) CreateApp(ctx context.Context, req domain.CreateAppRequest) (*domain.AppDetail, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("App name is required")
	}
	if len(name) > maxAppNameLength {
		return nil, apperr.Validation("App name must not exceed 100 characters")
	}
	if !req.Mode.Valid() {
		return nil, apperr.Validation("Invalid app mode: " + string(req.Mode))
	}

	if _, err := s.tenants.FindByID(ctx, req.TenantID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.TenantID, req.AccountID); err != nil {
		return nil, err
	}

	icon := req.Icon
	if icon == "" {
		icon = domain.DefaultIcon
	}
	iconBG := req.IconBG
	if iconBG == "" {
		iconBG = domain.DefaultIconBackground
	}

	app := &domain.App{
		ID:             s.genID.Generate(),
		TenantID:       req.TenantID,
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		Mode:           req.Mode,
		Icon:           icon,
		IconBackground: iconBG,
		EnableSite:     true,
		EnableAPI:      true,
		Status:         domain.StatusNormal,
		CreatedBy:      req.AccountID,
	}

	var cfg *domain.ModelConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, app); err != nil {
			return err
		}
		if req.ModelConfig == nil {
			return nil
		}
		cfg = s.buildConfig(app.ID, *req.ModelConfig)
		return repo.CreateConfig(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("app created",
		zap.String("app_id", app.ID.String()),
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("mode", string(app.Mode)),
	)
	return &domain.AppDetail{App: app, ModelConfig: cfg}, nil
}

func (s *Service) GetApp(ctx context.Context, appID, accountID snowflake.ID) (*domain.AppDetail, error) {
	app, err := s.memberApp(ctx, appID, accountID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.repo.FindConfigByApp(ctx, appID)
	if err != nil {
		return nil, err
	}
	return &domain.AppDetail{App: app, ModelConfig: cfg}, nil
}

func (s *Service) ListApps(ctx context.Context, tenantID, accountID snowflake.ID, includeArchived bool) ([]domain.App, error) {
	if _, err := s.tenants.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tenantID, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListByTenant(ctx, tenantID, includeArchived)
}

func (s *Service) UpdateApp(ctx context.Context, appID, accountID snowflake.ID, req domain.UpdateAppRequest) (*domain.App, error) {
	if _, err := s.memberApp(ctx, appID, accountID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("App name is required")
		}
		if len(name) > maxAppNameLength {
			return nil, apperr.Validation("App name must not exceed 100 characters")
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Icon != nil {
		fields["icon"] = *req.Icon
	}
	if req.IconBG != nil {
		fields["icon_background"] = *req.IconBG
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, appID, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, appID)
}

// UpdateAppConfig replaces the app's model config wholesale.
func (s *Service) UpdateAppConfig(ctx context.Context, appID, accountID snowflake.ID, req domain.ModelConfigRequest) (*domain.ModelConfig, error) {
	if _, err := s.memberApp(ctx, appID, accountID); err != nil {
		return nil, err
	}

	cfg := s.buildConfig(appID, req)
	if err := s.repo.ReplaceConfig(ctx, cfg); err != nil {
		return nil, err
	}

	s.log.Info("app config updated", zap.String("app_id", appID.String()))
	return cfg, nil
}

func (s *Service) ToggleSite(ctx context.Context, appID, accountID snowflake.ID, enable bool) (*domain.App, error) {
	return s.setFlag(ctx, appID, accountID, "enable_site", enable)
}

func (s *Service) ToggleAPI(ctx context.Context, appID, accountID snowflake.ID, enable bool) (*domain.App, error) {
	return s.setFlag(ctx, appID, accountID, "enable_api", enable)
}

func (s *Service) ArchiveApp(ctx context.Context, appID, accountID snowflake.ID) (*domain.App, error) {
	return s.setStatus(ctx, appID, accountID, domain.StatusArchived)
}

func (s *Service) UnarchiveApp(ctx context.Context, appID, accountID snowflake.ID) (*domain.App, error) {
	return s.setStatus(ctx, appID, accountID, domain.StatusNormal)
}

// DeleteApp is the only app operation that requires owner or admin. The
// model config is removed in the same transaction.
func (s *Service) DeleteApp(ctx context.Context, appID, accountID snowflake.ID) error {
	app, err := s.repo.FindByID(ctx, appID)
	if err != nil {
		return err
	}

	role, joined, err := s.tenants.MemberRole(ctx, app.TenantID, accountID)
	if err != nil {
		return err
	}
	if !joined || !role.Covers(tenantdomain.RoleAdmin) {
		return apperr.Authorization("Only owner or admin can delete apps")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteConfigByApp(ctx, appID); err != nil {
			return err
		}
		return repo.Delete(ctx, appID)
	})
	if err != nil {
		return err
	}

	s.log.Info("app deleted",
		zap.String("app_id", appID.String()),
		zap.String("tenant_id", app.TenantID.String()),
	)
	return nil
}

func (s *Service) buildConfig(appID snowflake.ID, req domain.ModelConfigRequest) *domain.ModelConfig {
	return &domain.ModelConfig{
		ID:                 s.genID.Generate(),
		AppID:              appID,
		Provider:           req.Provider,
		Model:              req.Model,
		Config:             req.Config,
		OpeningStatement:   req.OpeningStatement,
		SuggestedQuestions: req.SuggestedQuestions,
		PrePrompt:          req.PrePrompt,
		UserInputForm:      req.UserInputForm,
	}
}

func (s *Service) setFlag(ctx context.Context, appID, accountID snowflake.ID, column string, enable bool) (*domain.App, error) {
	if _, err := s.memberApp(ctx, appID, accountID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(ctx, appID, map[string]any{column: enable}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, appID)
}

func (s *Service) setStatus(ctx context.Context, appID, accountID snowflake.ID, status domain.AppStatus) (*domain.App, error) {
	if _, err := s.memberApp(ctx, appID, accountID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(ctx, appID, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, appID)
}

// memberApp loads the app and verifies the caller belongs to its tenant.
func (s *Service) memberApp(ctx context.Context, appID, accountID snowflake.ID) (*domain.App, error) {
	app, err := s.repo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, app.TenantID, accountID); err != nil {
		return nil, err
	}
	return app, nil
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

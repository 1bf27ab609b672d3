package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	"github.com/craftwork/polaris/internal/app/domain"
	"github.com/craftwork/polaris/internal/app/repository"
	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	tenantrepo "github.com/craftwork/polaris/internal/tenant/repository"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/craftwork/polaris/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc      domain.Service
	conn     *gorm.DB
	node     *snowflake.Node
	tenant   snowflake.ID
	owner    snowflake.ID
	admin    snowflake.ID
	member   snowflake.ID
	outsider snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = conn.AutoMigrate(
		&accountdomain.Account{},
		&tenantdomain.Tenant{},
		&tenantdomain.TenantAccountJoin{},
		&domain.App{},
		&domain.ModelConfig{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	f := &fixture{
		conn: conn,
		node: node,
		svc:  New(zap.NewNop(), conn, repository.New(conn), tenantrepo.New(conn), node),
	}

	f.owner = f.seedAccount(t, "owner@example.com")
	f.admin = f.seedAccount(t, "admin@example.com")
	f.member = f.seedAccount(t, "member@example.com")
	f.outsider = f.seedAccount(t, "outsider@example.com")

	tenant := &tenantdomain.Tenant{
		ID:     node.Generate(),
		Name:   "Acme",
		Slug:   "acme",
		Plan:   tenantdomain.PlanFree,
		Status: tenantdomain.StatusActive,
	}
	if err := conn.Create(tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	f.tenant = tenant.ID

	for id, role := range map[snowflake.ID]tenantdomain.Role{
		f.owner:  tenantdomain.RoleOwner,
		f.admin:  tenantdomain.RoleAdmin,
		f.member: tenantdomain.RoleMember,
	} {
		join := &tenantdomain.TenantAccountJoin{
			ID:        node.Generate(),
			TenantID:  tenant.ID,
			AccountID: id,
			Role:      role,
		}
		if err := conn.Create(join).Error; err != nil {
			t.Fatalf("seed join: %v", err)
		}
	}
	return f
}

func (f *fixture) seedAccount(t *testing.T, email string) snowflake.ID {
	t.Helper()
	account := &accountdomain.Account{
		ID:           f.node.Generate(),
		Email:        email,
		PasswordHash: "x",
		Name:         "Test User",
		Status:       accountdomain.StatusActive,
	}
	if err := f.conn.Create(account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account.ID
}

func (f *fixture) createApp(t *testing.T, name string) *domain.AppDetail {
	t.Helper()
	detail, err := f.svc.CreateApp(context.Background(), domain.CreateAppRequest{
		TenantID:  f.tenant,
		AccountID: f.member,
		Name:      name,
		Mode:      domain.ModeChat,
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return detail
}

func TestCreateAppDefaults(t *testing.T) {
	f := newFixture(t)

	detail := f.createApp(t, "My Bot")
	app := detail.App
	if app.Icon != domain.DefaultIcon {
		t.Errorf("icon = %q, want %q", app.Icon, domain.DefaultIcon)
	}
	if app.IconBackground != domain.DefaultIconBackground {
		t.Errorf("icon_background = %q, want %q", app.IconBackground, domain.DefaultIconBackground)
	}
	if !app.EnableSite || !app.EnableAPI {
		t.Error("enable_site and enable_api should default to true")
	}
	if app.Status != domain.StatusNormal {
		t.Errorf("status = %q, want normal", app.Status)
	}
	if detail.ModelConfig != nil {
		t.Error("model config should be nil when not requested")
	}
}

func TestCreateAppWithConfig(t *testing.T) {
	f := newFixture(t)

	detail, err := f.svc.CreateApp(context.Background(), domain.CreateAppRequest{
		TenantID:  f.tenant,
		AccountID: f.member,
		Name:      "Configured Bot",
		Mode:      domain.ModeChat,
		ModelConfig: &domain.ModelConfigRequest{
			Provider:         "openai",
			Model:            "gpt-4o-mini",
			Config:           datatypes.JSONMap{"temperature": 0.7},
			OpeningStatement: "Hello!",
		},
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	if detail.ModelConfig == nil || detail.ModelConfig.Model != "gpt-4o-mini" {
		t.Fatalf("model config = %+v", detail.ModelConfig)
	}

	loaded, err := f.svc.GetApp(context.Background(), detail.App.ID, f.member)
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	if loaded.ModelConfig == nil || loaded.ModelConfig.Provider != "openai" {
		t.Errorf("loaded config = %+v", loaded.ModelConfig)
	}
}

func TestCreateAppValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateApp(ctx, domain.CreateAppRequest{TenantID: f.tenant, AccountID: f.member, Name: " ", Mode: domain.ModeChat}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty name: got %v", err)
	}
	if _, err := f.svc.CreateApp(ctx, domain.CreateAppRequest{TenantID: f.tenant, AccountID: f.member, Name: "Ok", Mode: "pipeline"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad mode: got %v", err)
	}
	if _, err := f.svc.CreateApp(ctx, domain.CreateAppRequest{TenantID: f.tenant, AccountID: f.outsider, Name: "Ok", Mode: domain.ModeChat}); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Errorf("outsider: got %v", err)
	}
}

func TestArchiveVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createApp(t, "My Bot")

	if _, err := f.svc.ArchiveApp(ctx, detail.App.ID, f.member); err != nil {
		t.Fatalf("archive: %v", err)
	}

	visible, err := f.svc.ListApps(ctx, f.tenant, f.member, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("archived app still listed: %d", len(visible))
	}

	all, err := f.svc.ListApps(ctx, f.tenant, f.member, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].Status != domain.StatusArchived {
		t.Errorf("all = %+v", all)
	}

	restored, err := f.svc.UnarchiveApp(ctx, detail.App.ID, f.member)
	if err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if restored.Status != domain.StatusNormal {
		t.Errorf("status = %q, want normal", restored.Status)
	}

	visible, err = f.svc.ListApps(ctx, f.tenant, f.member, false)
	if err != nil {
		t.Fatalf("list after unarchive: %v", err)
	}
	if len(visible) != 1 {
		t.Errorf("restored app not listed")
	}
}

func TestToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createApp(t, "My Bot")

	app, err := f.svc.ToggleSite(ctx, detail.App.ID, f.member, false)
	if err != nil {
		t.Fatalf("toggle site: %v", err)
	}
	if app.EnableSite {
		t.Error("enable_site should be false")
	}

	app, err = f.svc.ToggleAPI(ctx, detail.App.ID, f.member, false)
	if err != nil {
		t.Fatalf("toggle api: %v", err)
	}
	if app.EnableAPI {
		t.Error("enable_api should be false")
	}

	if _, err := f.svc.ToggleSite(ctx, detail.App.ID, f.outsider, true); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Errorf("outsider toggle: got %v", err)
	}
}

func TestUpdateAppConfigReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createApp(t, "My Bot")

	first, err := f.svc.UpdateAppConfig(ctx, detail.App.ID, f.member, domain.ModelConfigRequest{Provider: "openai", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("first config: %v", err)
	}
	second, err := f.svc.UpdateAppConfig(ctx, detail.App.ID, f.member, domain.ModelConfigRequest{Provider: "openai", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("second config: %v", err)
	}
	if first.ID == second.ID {
		t.Error("config row should be replaced, not reused")
	}

	var count int64
	if err := f.conn.Model(&domain.ModelConfig{}).Where("app_id = ?", detail.App.ID).Count(&count).Error; err != nil {
		t.Fatalf("count configs: %v", err)
	}
	if count != 1 {
		t.Errorf("config rows = %d, want 1", count)
	}
}

func TestDeleteAppPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createApp(t, "My Bot")

	if _, err := f.svc.UpdateAppConfig(ctx, detail.App.ID, f.member, domain.ModelConfigRequest{Provider: "openai", Model: "gpt-4o"}); err != nil {
		t.Fatalf("config: %v", err)
	}

	if err := f.svc.DeleteApp(ctx, detail.App.ID, f.member); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Errorf("member delete: got %v", err)
	}
	if err := f.svc.DeleteApp(ctx, detail.App.ID, f.admin); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	if _, err := f.svc.GetApp(ctx, detail.App.ID, f.admin); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("deleted app lookup: got %v", err)
	}

	var count int64
	if err := f.conn.Model(&domain.ModelConfig{}).Where("app_id = ?", detail.App.ID).Count(&count).Error; err != nil {
		t.Fatalf("count configs: %v", err)
	}
	if count != 0 {
		t.Errorf("config rows after delete = %d, want 0", count)
	}
}

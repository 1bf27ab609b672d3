package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	accountrepo "github.com/craftwork/polaris/internal/account/repository"
	accountservice "github.com/craftwork/polaris/internal/account/service"
	appdomain "github.com/craftwork/polaris/internal/app/domain"
	apprepo "github.com/craftwork/polaris/internal/app/repository"
	appservice "github.com/craftwork/polaris/internal/app/service"
	"github.com/craftwork/polaris/internal/config"
	providerdomain "github.com/craftwork/polaris/internal/modelprovider/domain"
	providerrepo "github.com/craftwork/polaris/internal/modelprovider/repository"
	providerservice "github.com/craftwork/polaris/internal/modelprovider/service"
	"github.com/craftwork/polaris/internal/modelruntime"
	"github.com/craftwork/polaris/internal/observability/metrics"
	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	tenantrepo "github.com/craftwork/polaris/internal/tenant/repository"
	tenantservice "github.com/craftwork/polaris/internal/tenant/service"
	"github.com/craftwork/polaris/pkg/db"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Shared across tests; prometheus collectors register globally and must not
// be built twice in one binary.
var testMetrics = metrics.NewHTTPMetrics()

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = conn.AutoMigrate(
		&accountdomain.Account{},
		&tenantdomain.Tenant{},
		&tenantdomain.TenantAccountJoin{},
		&appdomain.App{},
		&appdomain.ModelConfig{},
		&providerdomain.ModelProvider{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	cfg := config.Config{
		AuthJWTSecret:        "test-secret",
		AuthTokenExpiryHours: 24,
		CredentialSecret:     "test-credential-secret",
		AuthRateLimit:        5,
		AuthRateBurst:        10,
	}

	holder, err := config.NewRuntimeHolder()
	if err != nil {
		t.Fatalf("runtime holder: %v", err)
	}

	log := zap.NewNop()
	accounts := accountrepo.New(conn)
	tenants := tenantrepo.New(conn)

	providerSvc, err := providerservice.New(log, cfg, providerrepo.New(conn), tenants, modelruntime.NewRegistry(holder), node)
	if err != nil {
		t.Fatalf("provider service: %v", err)
	}

	return NewServer(ServerParams{
		Gin:         NewEngine(log, testMetrics),
		Cfg:         cfg,
		Log:         log,
		AccountSvc:  accountservice.New(log, cfg, accounts, node),
		TenantSvc:   tenantservice.New(log, conn, tenants, accounts, node),
		AppSvc:      appservice.New(log, conn, apprepo.New(conn), tenants, node),
		ProviderSvc: providerSvc,
	})
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, s *Server, email string) string {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/console/auth/register", "", gin.H{
		"email": email, "password": "secret123", "name": "Test User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodPost, "/api/console/auth/login", "", gin.H{
		"email": email, "password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s, "user@example.com")

	w := doJSON(t, s, http.MethodGet, "/api/console/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d body = %s", w.Code, w.Body.String())
	}

	var me struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "user@example.com" {
		t.Errorf("email = %q", me.Email)
	}

	w = doJSON(t, s, http.MethodGet, "/api/console/auth/me", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/console/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d", w.Code)
	}
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	registerAndLogin(t, s, "user@example.com")

	w := doJSON(t, s, http.MethodPost, "/api/console/auth/register", "", gin.H{
		"email": "user@example.com", "password": "secret123", "name": "Twin",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error.Code != "RESOURCE_CONFLICT" || resp.Error.Message == "" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestTenantAndAppRoutes(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s, "owner@example.com")

	w := doJSON(t, s, http.MethodPost, "/api/console/tenants", token, gin.H{"name": "Acme"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tenant status = %d body = %s", w.Code, w.Body.String())
	}
	var tenant struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tenant); err != nil {
		t.Fatalf("decode tenant: %v", err)
	}

	w = doJSON(t, s, http.MethodPost, "/api/console/apps", token, gin.H{
		"tenant_id": tenant.ID, "name": "My Bot", "mode": "chat",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create app status = %d body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/console/apps?tenant_id="+tenant.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list apps status = %d body = %s", w.Code, w.Body.String())
	}
	var apps struct {
		Apps []struct {
			Name string `json:"name"`
		} `json:"apps"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &apps); err != nil {
		t.Fatalf("decode apps: %v", err)
	}
	if len(apps.Apps) != 1 || apps.Apps[0].Name != "My Bot" {
		t.Errorf("apps = %+v", apps.Apps)
	}

	w = doJSON(t, s, http.MethodGet, "/api/console/tenants/"+tenant.ID+"/members", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("members status = %d body = %s", w.Code, w.Body.String())
	}
	var members struct {
		Members []struct {
			Role string `json:"role"`
		} `json:"members"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &members); err != nil {
		t.Fatalf("decode members: %v", err)
	}
	if len(members.Members) != 1 || members.Members[0].Role != "owner" {
		t.Errorf("members = %+v", members.Members)
	}
}

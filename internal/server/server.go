package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/account"
	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	"github.com/craftwork/polaris/internal/app"
	appdomain "github.com/craftwork/polaris/internal/app/domain"
	"github.com/craftwork/polaris/internal/config"
	"github.com/craftwork/polaris/internal/migration"
	"github.com/craftwork/polaris/internal/modelprovider"
	providerdomain "github.com/craftwork/polaris/internal/modelprovider/domain"
	"github.com/craftwork/polaris/internal/modelruntime"
	"github.com/craftwork/polaris/internal/observability"
	obslogger "github.com/craftwork/polaris/internal/observability/logger"
	obsmetrics "github.com/craftwork/polaris/internal/observability/metrics"
	"github.com/craftwork/polaris/internal/ratelimit"
	"github.com/craftwork/polaris/internal/tenant"
	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	"github.com/craftwork/polaris/pkg/db"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	db.Module,
	migration.Module,
	ratelimit.Module,
	modelruntime.Module,
	account.Module,
	tenant.Module,
	app.Module,
	modelprovider.Module,
	fx.Provide(newSnowflakeNode),
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	accountSvc  accountdomain.Service
	tenantSvc   tenantdomain.Service
	appSvc      appdomain.Service
	providerSvc providerdomain.Service
	authLimiter *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	AccountSvc  accountdomain.Service
	TenantSvc   tenantdomain.Service
	AppSvc      appdomain.Service
	ProviderSvc providerdomain.Service
	AuthLimiter *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		accountSvc:  p.AccountSvc,
		tenantSvc:   p.TenantSvc,
		appSvc:      p.AppSvc,
		providerSvc: p.ProviderSvc,
		authLimiter: p.AuthLimiter,
	}

	s.registerAuthRoutes()
	s.registerTenantRoutes()
	s.registerAppRoutes()
	s.registerProviderRoutes()

	return s
}

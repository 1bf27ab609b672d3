package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	appdomain "github.com/craftwork/polaris/internal/app/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func (s *Server) registerAppRoutes() {
	apps := s.engine.Group("/api/console/apps", s.AuthRequired())
	apps.POST("", s.createApp)
	apps.GET("", s.listApps)
	apps.GET("/:app_id", s.getApp)
	apps.PUT("/:app_id", s.updateApp)
	apps.DELETE("/:app_id", s.deleteApp)
	apps.POST("/:app_id/archive", s.archiveApp)
	apps.POST("/:app_id/unarchive", s.unarchiveApp)
	apps.POST("/:app_id/site/enable", s.enableSite)
	apps.POST("/:app_id/site/disable", s.disableSite)
	apps.POST("/:app_id/api/enable", s.enableAPI)
	apps.POST("/:app_id/api/disable", s.disableAPI)
	apps.PUT("/:app_id/model-config", s.updateAppConfig)
}

type modelConfigBody struct {
	Provider           string            `json:"provider"`
	Model              string            `json:"model"`
	Config             datatypes.JSONMap `json:"config"`
	OpeningStatement   string            `json:"opening_statement"`
	SuggestedQuestions datatypes.JSON    `json:"suggested_questions"`
	PrePrompt          string            `json:"pre_prompt"`
	UserInputForm      datatypes.JSON    `json:"user_input_form"`
}

func (b modelConfigBody) toRequest() appdomain.ModelConfigRequest {
	return appdomain.ModelConfigRequest{
		Provider:           b.Provider,
		Model:              b.Model,
		Config:             b.Config,
		OpeningStatement:   b.OpeningStatement,
		SuggestedQuestions: b.SuggestedQuestions,
		PrePrompt:          b.PrePrompt,
		UserInputForm:      b.UserInputForm,
	}
}

type createAppRequest struct {
	TenantID    string           `json:"tenant_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Mode        string           `json:"mode"`
	Icon        string           `json:"icon"`
	IconBG      string           `json:"icon_background"`
	ModelConfig *modelConfigBody `json:"model_config"`
}

func (s *Server) createApp(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}

	var req createAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}
	tenantID, err := parseID(req.TenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	create := appdomain.CreateAppRequest{
		TenantID:    tenantID,
		AccountID:   account.ID,
		Name:        req.Name,
		Description: req.Description,
		Mode:        appdomain.Mode(req.Mode),
		Icon:        req.Icon,
		IconBG:      req.IconBG,
	}
	if req.ModelConfig != nil {
		mc := req.ModelConfig.toRequest()
		create.ModelConfig = &mc
	}

	detail, err := s.appSvc.CreateApp(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (s *Server) listApps(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	tenantID, err := parseID(c.Query("tenant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("include_archived", "false"))

	apps, err := s.appSvc.ListApps(c.Request.Context(), tenantID, account.ID, includeArchived)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apps": apps})
}

func (s *Server) getApp(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	appID, err := parseID(c.Param("app_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.appSvc.GetApp(c.Request.Context(), appID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type updateAppRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	IconBG      *string `json:"icon_background"`
}

func (s *Server) updateApp(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	appID, err := parseID(c.Param("app_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	app, err := s.appSvc.UpdateApp(c.Request.Context(), appID, account.ID, appdomain.UpdateAppRequest{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		IconBG:      req.IconBG,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) deleteApp(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	appID, err := parseID(c.Param("app_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.appSvc.DeleteApp(c.Request.Context(), appID, account.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "App deleted"})
}

func (s *Server) archiveApp(c *gin.Context) {
	s.appStateChange(c, s.appSvc.ArchiveApp)
}

func (s *Server) unarchiveApp(c *gin.Context) {
	s.appStateChange(c, s.appSvc.UnarchiveApp)
}

func (s *Server) enableSite(c *gin.Context)  { s.appToggle(c, s.appSvc.ToggleSite, true) }
func (s *Server) disableSite(c *gin.Context) { s.appToggle(c, s.appSvc.ToggleSite, false) }
func (s *Server) enableAPI(c *gin.Context)   { s.appToggle(c, s.appSvc.ToggleAPI, true) }
func (s *Server) disableAPI(c *gin.Context)  { s.appToggle(c, s.appSvc.ToggleAPI, false) }

func (s *Server) updateAppConfig(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	appID, err := parseID(c.Param("app_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req modelConfigBody
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	cfg, err := s.appSvc.UpdateAppConfig(c.Request.Context(), appID, account.ID, req.toRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type appStateFunc func(ctx context.Context, appID, accountID snowflake.ID) (*appdomain.App, error)

func (s *Server) appStateChange(c *gin.Context, fn appStateFunc) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	appID, err := parseID(c.Param("app_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	app, err := fn(c.Request.Context(), appID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type appToggleFunc func(ctx context.Context, appID, accountID snowflake.ID, enable bool) (*appdomain.App, error)

func (s *Server) appToggle(c *gin.Context, fn appToggleFunc, enable bool) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	appID, err := parseID(c.Param("app_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	app, err := fn(c.Request.Context(), appID, account.ID, enable)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/craftwork/polaris/internal/modelprovider/domain"
	"github.com/craftwork/polaris/internal/modelruntime"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func (s *Server) registerProviderRoutes() {
	providers := s.engine.Group("/api/console/tenants/:tenant_id/model-providers", s.AuthRequired())
	providers.POST("", s.addProvider)
	providers.GET("", s.listProviders)
	providers.GET("/:provider_id", s.getProvider)
	providers.PUT("/:provider_id", s.updateProvider)
	providers.DELETE("/:provider_id", s.deleteProvider)
	providers.POST("/:provider_id/test", s.testProvider)
	providers.POST("/:provider_id/activate", s.activateProvider)
	providers.POST("/:provider_id/deactivate", s.deactivateProvider)
}

type addProviderRequest struct {
	Name         string                   `json:"name"`
	ProviderType string                   `json:"provider_type"`
	Credentials  modelruntime.Credentials `json:"credentials"`
	Config       datatypes.JSONMap        `json:"config"`
	QuotaConfig  datatypes.JSONMap        `json:"quota_config"`
}

func (s *Server) addProvider(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	tenantID, err := parseID(c.Param("tenant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	provider, err := s.providerSvc.AddProvider(c.Request.Context(), providerdomain.AddProviderRequest{
		TenantID:     tenantID,
		Name:         req.Name,
		ProviderType: req.ProviderType,
		Credentials:  req.Credentials,
		Config:       req.Config,
		QuotaConfig:  req.QuotaConfig,
		CreatedBy:    account.ID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, provider)
}

func (s *Server) listProviders(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	tenantID, err := parseID(c.Param("tenant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	providers, err := s.providerSvc.ListProviders(c.Request.Context(), tenantID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	typeFilter := c.Query("provider_type")

	filtered := providers[:0]
	for _, p := range providers {
		if !includeInactive && !p.IsActive {
			continue
		}
		if typeFilter != "" && p.ProviderType != typeFilter {
			continue
		}
		filtered = append(filtered, p)
	}
	c.JSON(http.StatusOK, gin.H{"providers": filtered})
}

func (s *Server) getProvider(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	providerID, err := parseID(c.Param("provider_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	provider, err := s.providerSvc.GetProvider(c.Request.Context(), providerID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

type updateProviderRequest struct {
	Name        *string                  `json:"name"`
	Credentials modelruntime.Credentials `json:"credentials"`
	Config      datatypes.JSONMap        `json:"config"`
	QuotaConfig datatypes.JSONMap        `json:"quota_config"`
}

func (s *Server) updateProvider(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	providerID, err := parseID(c.Param("provider_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	provider, err := s.providerSvc.UpdateProvider(c.Request.Context(), providerID, account.ID, providerdomain.UpdateProviderRequest{
		Name:        req.Name,
		Credentials: req.Credentials,
		Config:      req.Config,
		QuotaConfig: req.QuotaConfig,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

func (s *Server) deleteProvider(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	providerID, err := parseID(c.Param("provider_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.providerSvc.DeleteProvider(c.Request.Context(), providerID, account.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Provider deleted"})
}

func (s *Server) testProvider(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	providerID, err := parseID(c.Param("provider_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.providerSvc.TestConnection(c.Request.Context(), providerID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) activateProvider(c *gin.Context) {
	s.providerStateChange(c, s.providerSvc.ActivateProvider)
}

func (s *Server) deactivateProvider(c *gin.Context) {
	s.providerStateChange(c, s.providerSvc.DeactivateProvider)
}

func (s *Server) providerStateChange(c *gin.Context, fn func(ctx context.Context, providerID, accountID snowflake.ID) (*providerdomain.ModelProvider, error)) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	providerID, err := parseID(c.Param("provider_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	provider, err := fn(c.Request.Context(), providerID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

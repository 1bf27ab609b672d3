package server

import (
	"net/http"

	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/gin-gonic/gin"
)

func (s *Server) registerTenantRoutes() {
	tenants := s.engine.Group("/api/console/tenants", s.AuthRequired())
	tenants.POST("", s.createTenant)
	tenants.GET("", s.listTenants)
	tenants.GET("/:tenant_id", s.getTenant)
	tenants.PUT("/:tenant_id", s.updateTenant)
	tenants.GET("/:tenant_id/members", s.listMembers)
	tenants.POST("/:tenant_id/members", s.addMember)
	tenants.DELETE("/:tenant_id/members/:account_id", s.removeMember)
	tenants.PUT("/:tenant_id/members/:account_id/role", s.updateMemberRole)
}

type createTenantRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

func (s *Server) createTenant(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}

	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	tenant, err := s.tenantSvc.CreateTenant(c.Request.Context(), tenantdomain.CreateTenantRequest{
		Name:           req.Name,
		OwnerAccountID: account.ID,
		Plan:           tenantdomain.Plan(req.Plan),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (s *Server) listTenants(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}

	tenants, err := s.tenantSvc.ListTenants(c.Request.Context(), account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (s *Server) getTenant(c *gin.Context) {
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

	tenant, err := s.tenantSvc.GetTenant(c.Request.Context(), tenantID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

type updateTenantRequest struct {
	Name   *string `json:"name"`
	Plan   *string `json:"plan"`
	Status *string `json:"status"`
}

func (s *Server) updateTenant(c *gin.Context) {
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

	var req updateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	update := tenantdomain.UpdateTenantRequest{Name: req.Name}
	if req.Plan != nil {
		plan := tenantdomain.Plan(*req.Plan)
		update.Plan = &plan
	}
	if req.Status != nil {
		status := tenantdomain.TenantStatus(*req.Status)
		update.Status = &status
	}

	tenant, err := s.tenantSvc.UpdateTenant(c.Request.Context(), tenantID, account.ID, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) listMembers(c *gin.Context) {
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

	isMember, err := s.tenantSvc.IsMember(c.Request.Context(), tenantID, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !isMember {
		AbortWithError(c, apperr.Authorization("Not a member of this tenant"))
		return
	}

	members, err := s.tenantSvc.GetMembers(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type addMemberRequest struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

func (s *Server) addMember(c *gin.Context) {
	operator, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	tenantID, err := parseID(c.Param("tenant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}
	accountID, err := parseID(req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	err = s.tenantSvc.AddMember(c.Request.Context(), tenantID, accountID, tenantdomain.Role(req.Role), operator.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
}

func (s *Server) removeMember(c *gin.Context) {
	operator, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	tenantID, err := parseID(c.Param("tenant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := parseID(c.Param("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.tenantSvc.RemoveMember(c.Request.Context(), tenantID, accountID, operator.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) updateMemberRole(c *gin.Context) {
	operator, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	tenantID, err := parseID(c.Param("tenant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := parseID(c.Param("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	err = s.tenantSvc.UpdateMemberRole(c.Request.Context(), tenantID, accountID, tenantdomain.Role(req.Role), operator.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

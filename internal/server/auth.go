package server

import (
	"net/http"

	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	"github.com/craftwork/polaris/internal/ratelimit"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/gin-gonic/gin"
)

func (s *Server) registerAuthRoutes() {
	limited := ratelimit.GinMiddleware(s.authLimiter, s.log, s.cfg.AuthRateLimit, s.cfg.AuthRateBurst)

	auth := s.engine.Group("/api/console/auth")
	auth.POST("/register", limited, s.register)
	auth.POST("/login", limited, s.login)
	auth.POST("/password/reset", limited, s.resetPassword)

	auth.GET("/me", s.AuthRequired(), s.me)
	auth.POST("/logout", s.AuthRequired(), s.logout)
	auth.POST("/password/change", s.AuthRequired(), s.changePassword)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	account, err := s.accountSvc.Register(c.Request.Context(), accountdomain.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	result, err := s.accountSvc.Login(c.Request.Context(), accountdomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": result.Account, "token": result.Token})
}

func (s *Server) me(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}
	c.JSON(http.StatusOK, account)
}

// logout exists for client symmetry; tokens are stateless so there is
// nothing to revoke server-side.
func (s *Server) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) changePassword(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Authentication("Not authenticated"))
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	if _, err := s.accountSvc.ChangePassword(c.Request.Context(), account.ID, req.OldPassword, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.Validation("Invalid request body"))
		return
	}

	if _, err := s.accountSvc.ResetPassword(c.Request.Context(), req.Email, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset"})
}

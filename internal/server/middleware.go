package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	contextAccountKey = "account"
	contextRequestID  = "request_id"
)

// RequestID propagates an inbound X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AuthRequired resolves the bearer token into an account and stores it on
// the context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			AbortWithError(c, apperr.Authentication("Authorization header is required"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		account, err := s.accountSvc.VerifyToken(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextAccountKey, account)
		c.Next()
	}
}

func currentAccount(c *gin.Context) (*accountdomain.Account, bool) {
	v, ok := c.Get(contextAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*accountdomain.Account)
	return account, ok
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation("Invalid identifier: " + raw)
	}
	return id, nil
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/server/services"
	"github.com/gin-gonic/gin"
)

type ticketResponse struct {
	Token string `json:"token"`
}

func (s *Server) migrate(strategy services.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, err := s.deps.Migrator.Reconcile(ctx, callerFrom(c), strategy)
		switch {
		case errors.Is(err, common.ErrAlreadyMigrated):
			c.String(common.StatusAlreadyHandled, common.MsgAlreadyMigrated)
		case errors.Is(err, common.ErrNotAuthenticated):
			c.String(common.StatusAlreadyHandled, common.MsgNotAuthenticated)
		case err != nil:
			s.logger.Error(ctx, "migration failed", "strategy", strategy.String(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusCreated, ticketResponse{Token: token})
		}
	}
}

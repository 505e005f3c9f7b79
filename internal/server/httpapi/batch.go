package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *Server) batch(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "Bad request")
		return
	}

	err = s.deps.Signatures.Verify(c.GetHeader(common.SignatureHeaderName), body, s.opts.WebhookURL)
	if errors.Is(err, common.ErrMissingSignature) {
		c.String(http.StatusUnauthorized, "No signature")
		return
	}
	if err != nil {
		s.logger.Warn(ctx, "batch signature rejected", "error", err)
		c.String(http.StatusUnauthorized, "Invalid signature")
		return
	}

	report, err := s.deps.Importer.Consume(ctx)
	if err != nil {
		s.logger.Error(ctx, "batch import failed", "error", err)
		c.String(http.StatusInternalServerError, "Batch failed")
		return
	}

	s.logger.Info(ctx, "batch import done",
		"popped", report.Popped,
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	c.String(http.StatusOK, "OK")
}

func (s *Server) hitTheLimit(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Maintenance.HitTheLimit(c.Request.Context()))
}

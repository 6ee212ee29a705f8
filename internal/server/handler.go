package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/pipeline"
)

const internalErrorMessage = "Internal error"

// answer handles POST /api/answer
func (s *Server) answer(c *gin.Context) {
	if s.config.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)
	}

	var req model.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("rejecting request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": model.MissingQueryMessage})
		return
	}

	result, err := s.checker.Check(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError is the only place pipeline errors become HTTP responses
func (s *Server) writeError(c *gin.Context, err error) {
	var validation *model.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
		return
	}

	s.logger.Error("fact check failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("kind", pipeline.ErrorKind(err)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":  internalErrorMessage,
		"detail": err.Error(),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

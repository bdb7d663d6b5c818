package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workspace-promoter/internal/core/domain"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrMissingSourceWorkspace),
		errors.Is(err, domain.ErrMissingTargetWorkspace),
		errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrInvalidRepoPath):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Upstream platform failures
	case errors.Is(err, domain.ErrAuth),
		errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"distributor/internal/locker"
	"distributor/internal/repository"
	"distributor/internal/services"
	"distributor/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type APIHandler struct {
	userService      services.UserService
	orderService     services.OrderService
	productService   services.ProductService
	dashboardService services.DashboardService
	logger           *zap.Logger
}

func NewAPIHandler(
	userService services.UserService,
	orderService services.OrderService,
	productService services.ProductService,
	dashboardService services.DashboardService,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		userService:      userService,
		orderService:     orderService,
		productService:   productService,
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// writeError maps domain errors to a status and a {"detail": ...} body.
func (h *APIHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, locker.ErrLockNotObtained):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		c.Error(err)
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"detail": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}

// writeBindError reports a request body that failed binding or validation.
func (h *APIHandler) writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": strings.Join(msgs, "; ")})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid request format"})
}

func parseOrderID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid order id"})
		return 0, false
	}
	return uint(id), true
}

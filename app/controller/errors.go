package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/service"
)

// errorStatus maps service errors to HTTP status codes and shopper-facing messages
func errorStatus(err error) (int, string) {
	if rejected, ok := service.IsCartRejected(err); ok {
		msg := rejected.Message
		if msg == "" {
			msg = "Could not update cart"
		}
		return http.StatusConflict, msg
	}

	switch {
	case errors.Is(err, service.ErrInvalidItem):
		return http.StatusBadRequest, "product and a quantity of at least 1 are required"
	case errors.Is(err, service.ErrMissingDevice):
		return http.StatusBadRequest, "device id is required"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, service.ErrCartServiceUnavailable):
		return http.StatusBadGateway, "cart service unavailable"
	case errors.Is(err, service.ErrMalformedCart):
		return http.StatusBadGateway, "cart service returned an unreadable cart"
	case errors.Is(err, service.ErrInvalidIdentity):
		return http.StatusInternalServerError, "could not resolve cart identity"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// abortWithError writes {"error": ...} and records err on the context for the request logger
func abortWithError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

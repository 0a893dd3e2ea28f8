package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/app/middleware"
	"storefront-gateway/service"
)

// SessionController exposes the login/logout hooks of a device
type SessionController struct {
	sessions service.SessionServiceInterface
}

// NewSessionController creates a new SessionController
func NewSessionController(sessions service.SessionServiceInterface) *SessionController {
	return &SessionController{sessions: sessions}
}

// Current handles GET /session. It never creates a guest session.
func (sc *SessionController) Current(c *gin.Context) {
	info, err := sc.sessions.Current(c.Request.Context(), middleware.DeviceID(c), middleware.CurrentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Login handles POST /session/login, called by the storefront right after sign-in
func (sc *SessionController) Login(c *gin.Context) {
	if err := sc.sessions.Login(c.Request.Context(), middleware.DeviceID(c), middleware.CurrentUser(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Logout handles POST /session/logout
func (sc *SessionController) Logout(c *gin.Context) {
	if err := sc.sessions.Logout(c.Request.Context(), middleware.DeviceID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

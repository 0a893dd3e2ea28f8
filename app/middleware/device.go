package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const deviceKey = "storefront.device"

// DeviceHeader lets non-browser clients carry their device id without cookies
const DeviceHeader = "X-Device-ID"

// DeviceOptions configures the device cookie
type DeviceOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Device makes sure every request has a device id: the header, then the cookie,
// otherwise a new uuid that is sent back as a cookie.
func Device(opts DeviceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := validDeviceID(c.GetHeader(DeviceHeader))
		if deviceID == "" {
			if cookie, err := c.Cookie(opts.CookieName); err == nil {
				deviceID = validDeviceID(cookie)
			}
		}
		if deviceID == "" {
			deviceID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.CookieName, deviceID, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		}

		c.Set(deviceKey, deviceID)
		c.Next()
	}
}

func validDeviceID(raw string) string {
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}

// DeviceID returns the device id set by Device
func DeviceID(c *gin.Context) string {
	return c.GetString(deviceKey)
}

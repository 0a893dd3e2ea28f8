package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-gateway/app/middleware"
	"storefront-gateway/models"
	"storefront-gateway/service"
)

// CartController handles HTTP requests for the shopper's cart
type CartController struct {
	carts  service.CartServiceInterface
	logger *zap.Logger
}

// NewCartController creates a new CartController
func NewCartController(carts service.CartServiceInterface, logger *zap.Logger) *CartController {
	return &CartController{carts: carts, logger: logger}
}

func cartRequest(c *gin.Context) service.CartRequest {
	return service.CartRequest{
		DeviceID: middleware.DeviceID(c),
		User:     middleware.CurrentUser(c),
	}
}

func viewOptions(c *gin.Context) service.ViewOptions {
	fresh := strings.ToLower(c.Query("fresh"))
	return service.ViewOptions{Fresh: fresh == "1" || fresh == "true"}
}

// GetCart handles GET /cart
// Example response:
//
//	{
//	  "identity": {"sessionId": "3f1c...", "isGuest": true},
//	  "items": [...],
//	  "wholesaleItems": [],
//	  "invalidItemCount": 0,
//	  "regular": {"subtotal": 500, "shipping": 50, "tax": 90, "total": 640, "taxRatePercent": 18, "itemCount": 1},
//	  "wholesale": {"calculations": {...}, "shipping": 0, "source": "empty", "empty": true, "itemCount": 0},
//	  "display": {"subtotal": "₹500.00", "shipping": "₹50.00", "tax": "₹90.00", "total": "₹640.00", "wholesaleTotal": "₹0.00"},
//	  "empty": false
//	}
func (cc *CartController) GetCart(c *gin.Context) {
	view, err := cc.carts.View(c.Request.Context(), cartRequest(c), viewOptions(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetSummary handles GET /cart/summary
func (cc *CartController) GetSummary(c *gin.Context) {
	view, err := cc.carts.View(c.Request.Context(), cartRequest(c), viewOptions(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": view.Regular,
		"display": view.Display,
		"empty":   view.Empty,
	})
}

// GetWholesale handles GET /cart/wholesale
// An empty wholesale partition is a 200 with "empty": true, not an error.
func (cc *CartController) GetWholesale(c *gin.Context) {
	view, err := cc.carts.View(c.Request.Context(), cartRequest(c), viewOptions(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     view.WholesaleItems,
		"wholesale": view.Wholesale,
		"total":     view.Display.WholesaleTotal,
	})
}

// GetCount handles GET /cart/count
func (cc *CartController) GetCount(c *gin.Context) {
	count, err := cc.carts.ItemCount(c.Request.Context(), cartRequest(c), viewOptions(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// AddItem handles POST /cart/items
// Example request:
//
//	{"product": "665f...", "quantity": 2, "size": "M"}
func (cc *CartController) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.logger.Warn("⚠️ AddItem: invalid request body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "product and a quantity of at least 1 are required"})
		return
	}

	view, err := cc.carts.AddItem(c.Request.Context(), cartRequest(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem handles DELETE /cart/items/:productId?size=M
func (cc *CartController) RemoveItem(c *gin.Context) {
	req := models.RemoveItemRequest{Product: c.Param("productId")}
	if size, ok := c.GetQuery("size"); ok && size != "" {
		req.Size = &size
	}

	view, err := cc.carts.RemoveItem(c.Request.Context(), cartRequest(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"distributor/internal/middleware"
	"distributor/internal/models"
	"distributor/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	ProductName    string          `json:"product_name" binding:"required"`
	Quantity       int             `json:"quantity"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
}

func (h *APIHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.CreateOrder(c.Request.Context(), user, req.ProductName, req.Quantity, req.AdvancePayment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) MyOrders(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	orders, err := h.orderService.GetOrdersByShopkeeper(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *APIHandler) Invoice(c *gin.Context) {
	id, ok := parseOrderID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.GetOrderForShopkeeper(c.Request.Context(), user, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteInvoice(&buf, order, user); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%d.pdf", order.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *APIHandler) Products(c *gin.Context) {
	products, err := h.productService.GetCatalog(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(products))
}

func (h *APIHandler) Dashboard(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	d, err := h.dashboardService.ForUser(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func orderResult(message string, order *models.Order) gin.H {
	return gin.H{"message": message, "order_id": order.ID, "order": order}
}

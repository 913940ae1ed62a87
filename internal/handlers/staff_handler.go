package handlers

import (
	"bytes"
	"net/http"

	"distributor/internal/middleware"
	"distributor/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type orderIDRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

type deliverRequest struct {
	OrderID         uint            `json:"order_id" binding:"required"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
}

type processOrderRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Action  string `json:"action" binding:"required,oneof=dispatch request_stock"`
}

func (h *APIHandler) listByStatus(status models.OrderStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.orderService.GetOrdersByStatus(c.Request.Context(), status)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(orders))
	}
}

// Salesman

func (h *APIHandler) PendingOrders(c *gin.Context) { h.listByStatus(models.OrderPlaced)(c) }

func (h *APIHandler) DispatchedOrders(c *gin.Context) { h.listByStatus(models.OrderDispatched)(c) }

func (h *APIHandler) ConfirmOrder(c *gin.Context) {
	var req orderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.ConfirmOrder(c.Request.Context(), user, req.OrderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResult("Order confirmed", order))
}

func (h *APIHandler) DeliverOrder(c *gin.Context) {
	var req deliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.DeliverOrder(c.Request.Context(), user, req.OrderID, req.CollectedAmount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res := orderResult("Order delivered and remaining payment collected", order)
	res["remaining_payment_collected"] = req.CollectedAmount
	c.JSON(http.StatusOK, res)
}

// Warehouse manager

func (h *APIHandler) ConfirmedOrders(c *gin.Context) { h.listByStatus(models.OrderConfirmed)(c) }

func (h *APIHandler) PendingActions(c *gin.Context) {
	orders, err := h.orderService.GetWarehousePendingActions(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *APIHandler) ProcessOrder(c *gin.Context) {
	var req processOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	var (
		order   *models.Order
		err     error
		message string
	)
	switch req.Action {
	case "dispatch":
		order, err = h.orderService.DispatchOrder(ctx, user, req.OrderID)
		message = "Order dispatched successfully"
	case "request_stock":
		order, err = h.orderService.RequestStock(ctx, user, req.OrderID)
		message = "Stock request noted for the order"
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResult(message, order))
}

func (h *APIHandler) PayManufacturer(c *gin.Context) {
	var req orderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.PayManufacturer(c.Request.Context(), user, req.OrderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res := orderResult("Manufacturer paid", order)
	res["amount"] = order.ManufacturerPrice
	c.JSON(http.StatusOK, res)
}

func (h *APIHandler) Stock(c *gin.Context) {
	products, err := h.productService.GetCatalog(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(products))
}

func (h *APIHandler) ExportStock(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.productService.ExportStock(c.Request.Context(), &buf); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=stock.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Manufacturer

func (h *APIHandler) StockRequests(c *gin.Context) {
	orders, err := h.orderService.GetStockRequests(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *APIHandler) RequestPayment(c *gin.Context) {
	id, ok := parseOrderID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.RequestPayment(c.Request.Context(), user, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResult("Payment requested", order))
}

func (h *APIHandler) ShipStock(c *gin.Context) {
	id, ok := parseOrderID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, err := h.orderService.ShipStock(c.Request.Context(), user, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResult("Stock shipped successfully", order))
}

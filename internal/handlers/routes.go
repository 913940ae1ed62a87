package handlers

import (
	"distributor/internal/middleware"
	"distributor/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts every endpoint on router.
func SetupRoutes(router *gin.Engine, h *APIHandler, auth middleware.Authenticator) {
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/products", h.Products)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", middleware.JWTAuth(auth), h.Logout)
	}

	protected := router.Group("/", middleware.JWTAuth(auth))
	protected.GET("/protected/me", h.Me)
	protected.GET("/dashboard", h.Dashboard)

	orders := protected.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.POST("/", h.CreateOrder)
		orders.GET("/my-orders", middleware.RequireRole(models.RoleShopkeeper), h.MyOrders)
		orders.GET("/:id/invoice", h.Invoice)
	}

	salesman := protected.Group("/salesman", middleware.RequireRole(models.RoleSalesman))
	{
		salesman.GET("/pending-orders", h.PendingOrders)
		salesman.GET("/dispatched-orders", h.DispatchedOrders)
		salesman.POST("/confirm-order", h.ConfirmOrder)
		salesman.POST("/deliver-order", h.DeliverOrder)
	}

	warehouse := protected.Group("/warehouse", middleware.RequireRole(models.RoleWarehouseManager))
	{
		warehouse.GET("/confirmed-orders", h.ConfirmedOrders)
		warehouse.GET("/pending-actions", h.PendingActions)
		warehouse.POST("/process-order", h.ProcessOrder)
		warehouse.POST("/pay-manufacturer", h.PayManufacturer)
		warehouse.GET("/stock", h.Stock)
		warehouse.GET("/stock/export", h.ExportStock)
	}

	manufacturer := protected.Group("/manufacturer", middleware.RequireRole(models.RoleManufacturer))
	{
		manufacturer.GET("/stock-requests", h.StockRequests)
		manufacturer.POST("/ship-stock/:id", h.ShipStock)
		manufacturer.POST("/request-payment/:id", h.RequestPayment)
	}
}

// Package router wires handlers onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tranqv/restaurant-pos/internal/config"
	"github.com/tranqv/restaurant-pos/internal/handler"
	"github.com/tranqv/restaurant-pos/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Orders    *handler.OrderHandler
	Tables    *handler.TableHandler
	Customers *handler.CustomerHandler
	Catalog   *handler.CatalogHandler
	Live      *handler.LiveHandler
}

// Register mounts all routes.  The rate limiter guards the whole /v1
// surface; the response cache wraps only the product catalog, which is
// the one read-heavy, rarely-changing resource.  A nil Redis client
// turns both middlewares into pass-throughs.
func Register(e *echo.Echo, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	// Order lifecycle.
	v1.POST("/orders", h.Orders.Create)
	v1.GET("/orders", h.Orders.List)
	v1.PUT("/orders/:id/status", h.Orders.UpdateStatus)
	v1.GET("/orders/:id/status", h.Orders.GetStatus)
	v1.GET("/orders/:id/items", h.Orders.Items)

	// Customers and their order history.
	v1.POST("/customers/login", h.Customers.Login)
	v1.GET("/customers", h.Customers.List)
	v1.POST("/customers", h.Customers.Create)
	v1.GET("/customers/:phone/points", h.Customers.Points)
	v1.GET("/customers/:phone/orders", h.Orders.CustomerOrders)
	v1.GET("/customers/:phone/orders/:id", h.Orders.CustomerOrderDetail)

	// Tables.
	v1.GET("/tables", h.Tables.List)
	v1.POST("/tables", h.Tables.Create)
	v1.GET("/tables/:id", h.Tables.Get)
	v1.PUT("/tables/:id", h.Tables.Update)
	v1.DELETE("/tables/:id", h.Tables.Delete)
	v1.POST("/tables/:id/assign", h.Tables.Assign)
	v1.POST("/tables/:id/remove", h.Tables.Remove)
	v1.GET("/tables/:id/customers", h.Tables.Occupants)
	v1.GET("/tables/:id/availability", h.Tables.Availability)

	// Product catalog, served through the response cache.
	menu := v1.Group("/products", middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	menu.GET("", h.Catalog.List)
	menu.GET("/:id", h.Catalog.Get)

	// Live displays.
	v1.GET("/ws/orders/updates", h.Live.OrderUpdates)
	v1.GET("/ws/orders/status", h.Live.OrderStatus)
	v1.GET("/ws/tables/updates", h.Live.TableUpdates)
}

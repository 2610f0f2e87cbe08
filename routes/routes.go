package routes

import (
	"github.com/Madhav-Gupta-28/shopfront-backend-go/handlers"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/metrics"
	customMiddleware "github.com/Madhav-Gupta-28/shopfront-backend-go/middleware"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Handler     *handlers.Handler
	Auth        *customMiddleware.Auth
	Audit       echo.MiddlewareFunc
	Metrics     *metrics.Metrics
	Log         logger.Logger
	CORSOrigins []string
}

// NewServer builds the echo instance with the global middleware stack and
// every route registered.
func NewServer(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = utils.NewRequestValidator()
	e.HTTPErrorHandler = handlers.NewErrorHandler(opts.Log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(customMiddleware.RequestLogger(opts.Log))
	e.Use(customMiddleware.Metrics(opts.Metrics))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowCredentials: true,
	}))

	SetupRoutes(e, opts)
	return e
}

func SetupRoutes(e *echo.Echo, opts Options) {
	h := opts.Handler
	authed := opts.Auth.RequireAuth
	admin := []echo.MiddlewareFunc{authed, customMiddleware.RequireAdmin, opts.Audit}

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{})))

	// Auth
	auth := e.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/currentUser", h.CurrentUser, authed)

	// Catalog
	products := e.Group("/products")
	products.GET("", h.ListProducts)
	products.GET("/", h.ListProducts)
	products.GET("/:id", h.GetProduct)
	products.POST("/create", h.CreateProduct, admin...)
	products.PUT("/update/:id", h.UpdateProduct, admin...)
	products.DELETE("/delete/:id", h.DeleteProduct, admin...)
	products.POST("/rate/:id", h.RateProduct, authed)

	category := e.Group("/category")
	category.GET("", h.ListCategories)
	category.GET("/", h.ListCategories)
	category.GET("/:slug", h.GetCategory)
	category.POST("/create", h.CreateCategory, admin...)
	category.PUT("/update/:id", h.UpdateCategory, admin...)
	category.DELETE("/delete/:id", h.DeleteCategory, admin...)

	// Cart
	cart := e.Group("/cart", authed)
	cart.GET("", h.GetCart)
	cart.GET("/", h.GetCart)
	cart.POST("/create", h.AddToCart)
	cart.PUT("/update", h.UpdateCartItem)
	cart.DELETE("/remove", h.RemoveFromCart)
	cart.DELETE("/clear", h.ClearCart)

	// Wishlist
	wishlist := e.Group("/wishlist", authed)
	wishlist.GET("", h.GetWishlist)
	wishlist.GET("/", h.GetWishlist)
	wishlist.POST("/add", h.AddToWishlist)
	wishlist.DELETE("/remove/:productId", h.RemoveFromWishlist)

	// Orders
	order := e.Group("/order")
	order.POST("/create", h.CreateOrder, authed)
	order.POST("/checkout", h.Checkout, authed)
	order.GET("", h.ListMyOrders, authed)
	order.GET("/", h.ListMyOrders, authed)
	order.GET("/all", h.ListAllOrders, admin...)
	order.GET("/:id", h.GetOrder, authed)
	order.PUT("/update/:id", h.UpdateOrderStatus, admin...)
	order.PUT("/advance/:id", h.AdvanceOrder, admin...)
	order.PUT("/rewind/:id", h.RewindOrder, admin...)
	order.PUT("/cancel/:id", h.CancelOrder, admin...)
	order.DELETE("/delete/:id", h.DeleteOrder, admin...)

	// Users
	user := e.Group("/user")
	user.PUT("/profile", h.UpdateProfile, authed)
	user.GET("/all", h.ListUsers, admin...)
	user.GET("/:id", h.GetUser, admin...)
	user.PUT("/update/:id", h.UpdateUser, admin...)
	user.DELETE("/delete/:id", h.DeleteUser, admin...)

	// Admin
	e.GET("/audit", h.ListAuditLogs, admin...)
	e.GET("/audit/", h.ListAuditLogs, admin...)
	e.GET("/admin/orders/ws", h.OrdersFeed, admin...)
}

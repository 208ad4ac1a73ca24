package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shop-backend/internal/auth"
	"shop-backend/internal/service"
	"shop-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	catalogService  *service.CatalogService
	orderService    *service.OrderService
	checkoutService *service.CheckoutService
	authService     *service.AuthService
	favoriteService *service.FavoriteService
	messageService  *service.MessageService
	reconciler      *service.Reconciler
	tokens          *auth.Tokens
	webhookSecret   string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogService *service.CatalogService,
	orderService *service.OrderService,
	checkoutService *service.CheckoutService,
	authService *service.AuthService,
	favoriteService *service.FavoriteService,
	messageService *service.MessageService,
	reconciler *service.Reconciler,
	tokens *auth.Tokens,
	webhookSecret string,
) *Handler {
	return &Handler{
		catalogService:  catalogService,
		orderService:    orderService,
		checkoutService: checkoutService,
		authService:     authService,
		favoriteService: favoriteService,
		messageService:  messageService,
		reconciler:      reconciler,
		tokens:          tokens,
		webhookSecret:   webhookSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:id", h.getCategory)
		v1.GET("/categories/slug/:slug", h.getCategoryBySlug)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/slug/:slug", h.getProductBySlug)
		v1.GET("/products/:id/variants", h.listVariants)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/number/:number", h.getOrderByNumber)
		v1.GET("/orders/session/:session_id", h.getOrderBySession)

		v1.POST("/checkout/session", h.createCheckoutSession)
		v1.GET("/checkout/session/:id", h.getCheckoutSession)

		v1.POST("/webhooks/stripe", h.stripeWebhook)

		v1.POST("/auth/signup", h.signUp)
		v1.POST("/auth/signin", h.signIn)
		v1.POST("/auth/admin/signin", h.adminSignIn)
		v1.POST("/auth/forgot-password", h.forgotPassword)
		v1.POST("/auth/reset-password", h.resetPassword)

		v1.POST("/messages", h.submitMessage)
	}

	me := v1.Group("", h.requireAuth())
	{
		me.POST("/auth/refresh", h.refreshToken)
		me.POST("/auth/signout", h.signOut)
		me.GET("/auth/me", h.profile)
		me.PUT("/auth/me/address", h.updateAddress)
		me.GET("/auth/me/orders", h.myOrders)

		me.GET("/favorites", h.listFavorites)
		me.POST("/favorites/:product_id", h.addFavorite)
		me.DELETE("/favorites/:product_id", h.removeFavorite)
		me.GET("/favorites/:product_id/check", h.checkFavorite)
	}

	admin := v1.Group("/admin", h.requireAuth(), h.requireAdmin())
	{
		admin.POST("/categories", h.createCategory)
		admin.PUT("/categories/:id", h.updateCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)
		admin.PUT("/categories/reorder", h.reorderCategories)

		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.POST("/products/:id/variants", h.createVariant)
		admin.PUT("/variants/:id", h.updateVariant)
		admin.DELETE("/variants/:id", h.deleteVariant)

		admin.GET("/orders", h.listOrders)
		admin.PUT("/orders/:id", h.updateOrder)

		admin.GET("/messages", h.listMessages)
		admin.GET("/messages/:id", h.getMessage)
		admin.PUT("/messages/:id/status", h.updateMessageStatus)

		admin.GET("/users", h.listUsers)
		admin.GET("/users/:id", h.getUser)
		admin.POST("/users", h.createUser)
		admin.PUT("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)

		admin.GET("/dashboard", h.dashboard)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondErr maps service errors to HTTP statuses.
func respondErr(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrProvider):
		status = http.StatusBadGateway
	}

	body := gin.H{"error": msg}
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		util.GetLogger().Error(msg, zap.Error(err))
	} else {
		body["details"] = err.Error()
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
	"flashtans/internal/service"
)

// HealthChecker то, что отдаёт /api/health: обычно repository.Store
type HealthChecker interface {
	Ping(ctx context.Context) error
	Driver() string
}

type Server struct {
	engine   *gin.Engine
	products *service.ProductService
	orders   *service.OrderService
	health   HealthChecker
	log      *slog.Logger
}

func NewServer(products *service.ProductService, orders *service.OrderService, health HealthChecker, log *slog.Logger) (*Server, error) {
	r := gin.New()
	r.Use(requestID(), accessLog(log), gin.Recovery())
	s := &Server{engine: r, products: products, orders: orders, health: health, log: log}
	if err := s.loadViews(); err != nil {
		return nil, err
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := s.engine.Group("/api")
	{
		products := api.Group("/products")
		products.GET("", s.listProducts)
		products.POST("", s.createProduct)
		products.DELETE(":id", s.deleteProduct)

		orders := api.Group("/orders")
		orders.GET("", s.listOrders)
		orders.POST("", s.createOrder)
		orders.GET(":id", s.getOrder)

		api.GET("/health", s.healthCheck)
	}

	s.engine.GET("/", s.storefrontPage)
	s.engine.GET("/admin", s.adminPage)
	s.engine.GET("/cart", s.cartPage)
	s.engine.NoRoute(s.notFound)
}

// @Summary List products
// @Description Newest first
// @Tags products
// @Produce json
// @Param q query string false "Name contains"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Success 200 {array} domain.Product
// @Failure 500 {object} map[string]string
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	list, err := s.products.List(c.Request.Context(), productFilter(c))
	if err != nil {
		s.fail(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, list)
}

func productFilter(c *gin.Context) repository.ProductFilter {
	var f repository.ProductFilter
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		f.NameSubstring = q
	}
	if v := c.Query("min_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &x
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &x
		}
	}
	return f
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body domain.NewProduct true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req domain.NewProduct
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badJSON(c, err)
		return
	}
	p, err := s.products.Create(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Delete product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if isNotFound(err) {
			s.respondError(c, http.StatusNotFound, err, "Product not found")
			return
		}
		s.fail(c, err, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// @Summary Place order
// @Description Decrements stock and records the customer and the order atomically
// @Tags orders
// @Accept json
// @Produce json
// @Param input body domain.OrderRequest true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badJSON(c, err)
		return
	}
	o, err := s.orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary List orders
// @Description Newest first, with customer details
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Failure 500 {object} map[string]string
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.ListOrders(c.Request.Context())
	if err != nil {
		s.fail(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			s.respondError(c, http.StatusNotFound, err, "Order not found")
			return
		}
		s.fail(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.health.Ping(c.Request.Context()); err != nil {
		s.log.ErrorContext(c.Request.Context(), "health_check_failed", "store", s.health.Driver(), "error", err, "request_id", RequestID(c))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": s.health.Driver()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": s.health.Driver()})
}

// fail пишет ответ об ошибке; для 500 клиент видит только fallback
func (s *Server) fail(c *gin.Context, err error, fallback string) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = fallback
	}
	s.respondError(c, status, err, msg)
}

func (s *Server) respondError(c *gin.Context, status int, err error, msg string) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.log.Log(c.Request.Context(), level, "request_failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", status,
		"error", err,
		"request_id", RequestID(c),
	)
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) badJSON(c *gin.Context, err error) {
	s.respondError(c, http.StatusBadRequest, err, "invalid json")
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

func mapErrorToStatus(err error) int {
	var (
		invalid *domain.ValidationError
		missing *domain.NotFoundError
		stock   *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &missing):
		return http.StatusNotFound
	case errors.As(err, &stock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

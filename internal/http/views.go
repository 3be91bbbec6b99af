package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flashtans/internal/repository"
)

//go:embed templates/*.html
var templatesFS embed.FS

var viewFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"date":  func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}

func (s *Server) loadViews() error {
	tmpl, err := template.New("").Funcs(viewFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	s.engine.SetHTMLTemplate(tmpl)
	return nil
}

func (s *Server) storefrontPage(c *gin.Context) {
	products, err := s.products.List(c.Request.Context(), repository.ProductFilter{})
	if err != nil {
		s.errorPage(c, http.StatusInternalServerError, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Flash Tans", "Products": products})
}

func (s *Server) adminPage(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		s.errorPage(c, http.StatusInternalServerError, err)
		return
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		s.errorPage(c, http.StatusInternalServerError, err)
		return
	}
	c.HTML(http.StatusOK, "admin.html", gin.H{"Title": "Admin", "Products": products, "Orders": orders})
}

func (s *Server) cartPage(c *gin.Context) {
	c.HTML(http.StatusOK, "cart.html", gin.H{"Title": "Cart"})
}

func (s *Server) notFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.HTML(http.StatusNotFound, "error.html", gin.H{"Title": "Not found", "Status": http.StatusNotFound, "Message": "Page not found"})
}

func (s *Server) errorPage(c *gin.Context, status int, err error) {
	s.log.ErrorContext(c.Request.Context(), "render_failed", "path", c.Request.URL.Path, "error", err, "request_id", RequestID(c))
	c.HTML(status, "error.html", gin.H{"Title": "Error", "Status": status, "Message": "Something went wrong"})
}

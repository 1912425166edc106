package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderPage(c *gin.Context, status int, name string, data any) {
	c.Render(status, render.HTML{Template: pages, Name: name, Data: data})
}

// Index handles GET /.
func Index(c *gin.Context) {
	c.String(http.StatusOK, "PhonePe payment bridge is running")
}

// Ping handles GET /ping.
func Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// Success handles GET /success/:id.
func Success(c *gin.Context) {
	renderPage(c, http.StatusOK, "success", gin.H{"OrderID": c.Param("id")})
}

// Fail handles GET /fail.
func Fail(c *gin.Context) {
	renderPage(c, http.StatusOK, "fail", gin.H{"OrderID": c.Query("orderId")})
}

// Package web 提供内嵌的车队管理页面
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html app.js style.css
var assets embed.FS

// Register 注册静态页面路由
func Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		serveAsset(c, "index.html", "text/html; charset=utf-8")
	})
	r.GET("/app.js", func(c *gin.Context) {
		serveAsset(c, "app.js", "application/javascript; charset=utf-8")
	})
	r.GET("/style.css", func(c *gin.Context) {
		serveAsset(c, "style.css", "text/css; charset=utf-8")
	})
}

// serveAsset 输出内嵌静态文件
func serveAsset(c *gin.Context, name, contentType string) {
	data, err := assets.ReadFile(name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

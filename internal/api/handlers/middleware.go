package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carbarn/fleetd/internal/service"
)

// AdminTokenHeader 管理口令请求头
const AdminTokenHeader = "X-Admin-Token"

// AdminRequired 校验管理口令，口令未配置或不匹配时返回 403
func (h *Handler) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AdminTokenHeader)
		if h.adminToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": service.NewError(service.CodeAdminApprovalRequired, "admin token required"),
			})
			return
		}
		c.Next()
	}
}

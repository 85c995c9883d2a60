package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/authz"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/jwt"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/redis"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/response"
)

// 上下文键
const (
	CtxUserID      = "user_id"
	CtxClaims      = "claims"
	CtxAccessToken = "access_token"
	CtxRoles       = "roles"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// rdb 为 nil 时跳过黑名单检查（降级放行）
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return authenticate(jwtMgr, rdb, bearerToken)
}

// StreamAuth 用于 SSE：EventSource 无法设置请求头，允许通过 ?access_token= 传递
func StreamAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return authenticate(jwtMgr, rdb, func(c *gin.Context) (string, string) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("access_token"); token != "" {
				return token, ""
			}
		}
		return bearerToken(c)
	})
}

// bearerToken 返回 token；失败时第二个返回值为错误提示
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "缺少认证头"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "认证头格式无效"
	}
	return parts[1], ""
}

func authenticate(jwtMgr *jwt.Manager, rdb *redis.Client, extract func(*gin.Context) (string, string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := extract(c)
		if msg != "" {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			// Redis 出错时降级放行
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxClaims, claims)
		c.Set(CtxAccessToken, token)

		c.Next()
	}
}

// RoleLoader 角色解析器
type RoleLoader interface {
	LoadRoles(ctx context.Context, userID string) (authz.RoleSet, error)
}

// RequireAdmin 全局管理员权限中间件。
// 角色每次请求实时解析；解析失败时得到空集合，按无权限处理。
func RequireAdmin(loader RoleLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		if userID == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		roles, _ := loader.LoadRoles(c.Request.Context(), userID)
		if !authz.IsAdmin(roles) {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Set(CtxRoles, roles)
		c.Next()
	}
}

package middlewares

import (
	"log"
	"net/http"
	"os"
	"strings"

	"pms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) != 2 || parts[1] == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := parts[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("username", claims.Username)
	ctx.Set("role", claims.Role)
	ctx.Next()
}

// AdminOnly gates a route group on the admin role claim.
func AdminOnly(ctx *gin.Context) {
	if ctx.GetString("role") != "admin" {
		ctx.AbortWithStatus(http.StatusForbidden)
		return
	}
	ctx.Next()
}

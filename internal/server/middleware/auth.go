package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	PermissionRead    = "graph.read"
	PermissionWrite   = "graph.write"
	PermissionExtract = "graph.extract"
	PermissionDelete  = "graph.delete"
	PermissionClear   = "graph.clear"
)

var allPermissions = []string{
	PermissionRead,
	PermissionWrite,
	PermissionExtract,
	PermissionDelete,
	PermissionClear,
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
}

// AuthMiddleware accepts the master API key or a JWT checked with the app's
// key function. An admin token without a permissions claim gets every
// permission.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			return unauthorized(c, "Unauthorized")
		}

		ac := c.(*AppContext)
		app := ac.App

		if app.MasterAPIKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(app.MasterAPIKey)) == 1 {
			ac.User = &AppUser{
				Subject:     "master",
				Role:        "admin",
				Permissions: allPermissions,
			}
			return next(c)
		}

		if app.Key == nil {
			return unauthorized(c, "Unauthorized")
		}
		parsed, err := jwt.Parse(token, app.Key)
		if err != nil || !parsed.Valid {
			return unauthorized(c, "Unauthorized")
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		subject, err := claims.GetSubject()
		if err != nil || subject == "" {
			return unauthorized(c, "Invalid subject")
		}

		role := "user"
		if roleClaim, ok := claims["role"].(string); ok {
			role = roleClaim
		}

		var permissions []string
		if permsClaim, ok := claims["permissions"].([]any); ok {
			for _, p := range permsClaim {
				if pStr, ok := p.(string); ok {
					permissions = append(permissions, pStr)
				}
			}
		}

		if role == "admin" && len(permissions) == 0 {
			permissions = allPermissions
		}

		ac.User = &AppUser{
			Subject:     subject,
			Role:        role,
			Permissions: permissions,
		}
		return next(c)
	}
}

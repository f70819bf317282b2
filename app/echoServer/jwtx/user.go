// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id set by the auth middleware.
func UserID(c echo.Context) (int64, error) {
	id, ok := c.Get("user_id").(int64)
	if !ok || id <= 0 {
		return 0, errors.New("no user in context")
	}
	return id, nil
}

// Role returns the role claim, empty when absent.
func Role(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

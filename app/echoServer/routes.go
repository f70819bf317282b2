package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/auth"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/booking"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/item"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/review"
)

type C struct {
	Auth      *auth.Controller
	Item      *item.Controller
	Booking   *booking.Controller
	Review    *review.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	// user_id / role extraction from the verified token
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tok, ok := ctx.Get("user").(*jwt.Token)
			if !ok || tok == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))

			if role, ok := claims["role"].(string); ok {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	})

	// Items
	auth.GET("/items", c.Item.List)
	auth.GET("/items/:id", c.Item.Detail)
	auth.GET("/items/:id/availability", c.Booking.Availability)
	auth.GET("/items/:id/quote", c.Booking.Quote)
	auth.POST("/items", c.Item.Create)
	auth.PUT("/items/:id", c.Item.Update)

	// Bookings
	auth.POST("/bookings", c.Booking.Create)
	auth.GET("/bookings/my", c.Booking.Mine)
	auth.GET("/bookings/:id", c.Booking.Detail)
	auth.PATCH("/bookings/:id/approve", c.Booking.Approve)
	auth.PATCH("/bookings/:id/reject", c.Booking.Reject)
	auth.PATCH("/bookings/:id/cancel", c.Booking.Cancel)
	auth.PATCH("/bookings/:id/payment-pending", c.Booking.PaymentPending)
	auth.PATCH("/bookings/:id/complete", c.Booking.Complete)

	// Reviews
	auth.POST("/reviews", c.Review.Create)
	auth.GET("/users/:id/reviews", c.Review.ForUser)

	// Admin
	auth.POST("/admin/bookings/sweep", c.Booking.Sweep)
}

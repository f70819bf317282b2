// Package main rental marketplace API.
//
// @title           Dz-RentIt API
// @version         2.0
// @description     Peer-to-peer rental marketplace (items, bookings, reviews).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer"
	authctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/auth"
	bookingctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/booking"
	itemctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/item"
	reviewctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/review"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/validation"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/config"
	bookingrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/booking"
	itemrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/item"
	reviewrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/review"
	userrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/user"
	authsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/auth"
	bookingsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/booking"
	itemsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/item"
	reviewsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/review"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	ir := itemrepo.New(db)
	br := bookingrepo.New(db)
	rr := reviewrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	is := itemsvc.New(ir)
	bs := bookingsvc.New(db, br, ir, cfg.BookingExpiry, cfg.LockTimeout)
	sw := bookingsvc.NewSweeper(db, br, log)
	rs := reviewsvc.New(db, rr, br)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	itemC := &itemctrl.Controller{Svc: is, V: v, Log: log}
	bookingC := &bookingctrl.Controller{
		Svc:         bs,
		Sweeper:     sw,
		V:           v,
		Log:         log,
		ExpiryHours: int(cfg.BookingExpiry.Hours()),
	}
	reviewC := &reviewctrl.Controller{Svc: rs, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Item:    itemC,
		Booking: bookingC,
		Review:  reviewC,

		JWTSecret: cfg.JWTSecret,
	})

	// background expiry sweeper
	if cfg.SweepInterval > 0 {
		go bookingsvc.Run(ctx, sw, cfg.SweepInterval, cfg.BookingExpiry, log)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}

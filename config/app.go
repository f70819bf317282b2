package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// Database pool
	DBMaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" default:"5m"`

	// Booking rules
	BookingExpiry time.Duration `env:"BOOKING_EXPIRY" default:"48h"`
	LockTimeout   time.Duration `env:"LOCK_TIMEOUT" default:"3s"`

	// Expiry sweeper. SweepInterval = 0 disables the background loop.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"1h"`
}

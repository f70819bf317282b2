// app/echoServer/routes_test.go
package echoServer_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer"
	authctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/auth"
	bookingctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/booking"
	itemctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/item"
	reviewctrl "github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/controller/review"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/validation"
	bookingrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/booking"
	itemrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/item"
	reviewrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/review"
	userrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/user"
	authsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/auth"
	bookingsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/booking"
	itemsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/item"
	reviewsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/review"
)

const testSecret = "route-test-secret"

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := postgres.Host(ctx)
	require.NoError(t, err)
	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Ping())
	require.NoError(t, runMigrations(db))
	return db
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".up.sql") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(migrationDir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
	}
	return nil
}

// newServer wires the full stack the way main.go does.
func newServer(db *sql.DB) *echo.Echo {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ur := userrepo.New(db)
	ir := itemrepo.New(db)
	br := bookingrepo.New(db)
	rr := reviewrepo.New(db)

	as := authsvc.New(ur, testSecret)
	is := itemsvc.New(ir)
	bs := bookingsvc.New(db, br, ir, 48*time.Hour, 3*time.Second)
	sw := bookingsvc.NewSweeper(db, br, log)
	rs := reviewsvc.New(db, rr, br)

	v := validator.New()
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	echoServer.Register(e, echoServer.C{
		Auth: &authctrl.Controller{Svc: as, V: v, Log: log},
		Item: &itemctrl.Controller{Svc: is, V: v, Log: log},
		Booking: &bookingctrl.Controller{
			Svc: bs, Sweeper: sw, V: v, Log: log, ExpiryHours: 48,
		},
		Review:    &reviewctrl.Controller{Svc: rs, V: v, Log: log},
		JWTSecret: testSecret,
	})
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func registerUser(t *testing.T, e *echo.Echo, username string) (int64, string) {
	t.Helper()
	body := fmt.Sprintf(`{
		"first_name": "T", "last_name": "User",
		"email": "%s@test.local", "username": "%s", "password": "supersecret"
	}`, username, username)
	rec, out := doJSON(t, e, http.MethodPost, "/v1/users/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	user, _ := out["user"].(map[string]any)
	require.NotNil(t, user)
	id, _ := user["id"].(float64)
	require.Greater(t, id, float64(0))
	return int64(id), token
}

func isoDay(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

// A token minted by our own login must pass the jwt middleware in the
// standard Bearer form, and only in that form.
func TestAuthChain_BearerToken(t *testing.T) {
	db := setupTestDB(t)
	e := newServer(db)

	_, token := registerUser(t, e, "authchain")

	rec, _ := doJSON(t, e, http.MethodGet, "/v1/bookings/my", "Bearer "+token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Missing header.
	rec, _ = doJSON(t, e, http.MethodGet, "/v1/bookings/my", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Raw token without the Bearer prefix is not accepted.
	rec, _ = doJSON(t, e, http.MethodGet, "/v1/bookings/my", token, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Tampered token.
	rec, _ = doJSON(t, e, http.MethodGet, "/v1/bookings/my", "Bearer "+token+"x", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	e := newServer(db)

	_, ownerTok := registerUser(t, e, "httpowner")
	_, renterTok := registerUser(t, e, "httprenter")

	// Owner lists an item.
	rec, out := doJSON(t, e, http.MethodPost, "/v1/items", "Bearer "+ownerTok, `{
		"title": "Drill", "description": "cordless",
		"price_per_day": "50.00", "deposit_amount": "100.00"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	itemID := int64(out["id"].(float64))

	// Renter books it.
	rec, out = doJSON(t, e, http.MethodPost, "/v1/bookings", "Bearer "+renterTok, fmt.Sprintf(`{
		"item_id": %d, "start_date": "%s", "end_date": "%s"
	}`, itemID, isoDay(1), isoDay(3)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookingID := int64(out["id"].(float64))
	require.Equal(t, "PENDING", out["status"])

	// Renter sees it in their list.
	rec, out = doJSON(t, e, http.MethodGet, "/v1/bookings/my?role=renter", "Bearer "+renterTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := out["data"].([]any)
	require.Len(t, data, 1)

	// Renter cannot approve; owner can.
	rec, _ = doJSON(t, e, http.MethodPatch, fmt.Sprintf("/v1/bookings/%d/approve", bookingID), "Bearer "+renterTok, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, out = doJSON(t, e, http.MethodPatch, fmt.Sprintf("/v1/bookings/%d/approve", bookingID), "Bearer "+ownerTok, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "APPROVED", out["status"])

	// Overlapping second booking conflicts.
	rec, _ = doJSON(t, e, http.MethodPost, "/v1/bookings", "Bearer "+renterTok, fmt.Sprintf(`{
		"item_id": %d, "start_date": "%s", "end_date": "%s"
	}`, itemID, isoDay(2), isoDay(5)))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// Sweep is admin-only; a regular user gets 403.
	rec, _ = doJSON(t, e, http.MethodPost, "/v1/admin/bookings/sweep?dry_run=true", "Bearer "+ownerTok, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

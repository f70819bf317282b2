// service/booking/integration_test.go
package booking_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
	bookingrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/booking"
	itemrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/item"
	booking "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/booking"
)

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

func seedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`
		INSERT INTO users(first_name, last_name, email, username, password_hash, role)
		VALUES ('T', 'User', $1 || '@test.local', $1, 'x', 'user')
		RETURNING id`, username).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedItem(t *testing.T, db *sql.DB, ownerID int64, pricePerDay string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`
		INSERT INTO items(owner_id, title, description, price_per_day, deposit_amount, is_active)
		VALUES ($1, 'Drill', 'cordless', $2, 100, true)
		RETURNING id`, ownerID, pricePerDay).Scan(&id)
	require.NoError(t, err)
	return id
}

func backdateBooking(t *testing.T, db *sql.DB, bookingID int64, age time.Duration) {
	t.Helper()
	_, err := db.Exec(`UPDATE bookings SET created_at = now() - $2::interval WHERE id = $1`,
		bookingID, fmt.Sprintf("%d seconds", int64(age.Seconds())))
	require.NoError(t, err)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(db *sql.DB) booking.Service {
	return booking.New(db, bookingrepo.New(db), itemrepo.New(db), 48*time.Hour, 3*time.Second)
}

func futureDay(days int) time.Time {
	now := time.Now().UTC()
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, days)
}

func TestCreate_PricingSnapshot(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner1")
	renter := seedUser(t, db, "renter1")
	item := seedItem(t, db, owner, "100.00")

	// 10 inclusive days lands in the 10% tier.
	b, err := svc.Create(ctx, renter, item, futureDay(1), futureDay(10))
	require.NoError(t, err)
	require.Equal(t, model.BookingPending, b.Status)
	require.Equal(t, int64(10), b.TotalDays)
	require.True(t, b.BaseTotal.Equal(decimal.NewFromInt(1000)), "base %s", b.BaseTotal)
	require.True(t, b.DiscountAmount.Equal(decimal.NewFromInt(100)), "discount %s", b.DiscountAmount)
	require.True(t, b.FinalTotal.Equal(decimal.NewFromInt(900)), "final %s", b.FinalTotal)
	require.Equal(t, owner, b.OwnerID)
}

func TestCreate_Rejections(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner2")
	renter := seedUser(t, db, "renter2")
	item := seedItem(t, db, owner, "50.00")

	// Owner booking their own item.
	_, err := svc.Create(ctx, owner, item, futureDay(1), futureDay(3))
	require.Equal(t, booking.ErrSelfBooking, booking.Code(err))

	// Inactive item.
	_, err = db.Exec(`UPDATE items SET is_active = false WHERE id = $1`, item)
	require.NoError(t, err)
	_, err = svc.Create(ctx, renter, item, futureDay(1), futureDay(3))
	require.Equal(t, booking.ErrInactiveItem, booking.Code(err))

	// Unknown item.
	_, err = svc.Create(ctx, renter, 999999, futureDay(1), futureDay(3))
	require.Equal(t, booking.ErrNotFound, booking.Code(err))
}

func TestCreate_OverlapRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner3")
	r1 := seedUser(t, db, "renter3a")
	r2 := seedUser(t, db, "renter3b")
	item := seedItem(t, db, owner, "50.00")

	_, err := svc.Create(ctx, r1, item, futureDay(5), futureDay(10))
	require.NoError(t, err)

	// Any intersection with an active booking is rejected, boundary included.
	for _, tc := range [][2]int{{8, 12}, {1, 5}, {10, 14}, {6, 9}, {4, 11}} {
		_, err := svc.Create(ctx, r2, item, futureDay(tc[0]), futureDay(tc[1]))
		require.Equal(t, booking.ErrOverlap, booking.Code(err), "range %v", tc)
	}

	// Back-to-back ranges touch but do not intersect.
	_, err = svc.Create(ctx, r2, item, futureDay(11), futureDay(14))
	require.NoError(t, err)
}

func TestCreate_ConcurrentSameRange(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner4")
	r1 := seedUser(t, db, "renter4a")
	r2 := seedUser(t, db, "renter4b")
	item := seedItem(t, db, owner, "50.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, renter := range []int64{r1, r2} {
		wg.Add(1)
		go func(i int, renter int64) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, renter, item, futureDay(5), futureDay(10))
		}(i, renter)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case booking.Code(err) == booking.ErrOverlap || booking.Code(err) == booking.ErrBusy:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one attempt must win")
	require.Equal(t, 1, rejected)
}

func TestTransition_FullFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner5")
	renter := seedUser(t, db, "renter5")
	item := seedItem(t, db, owner, "50.00")

	b, err := svc.Create(ctx, renter, item, futureDay(1), futureDay(3))
	require.NoError(t, err)

	// Renter cannot approve.
	_, err = svc.Transition(ctx, b.ID, model.BookingApproved, renter)
	require.Equal(t, booking.ErrInvalidTransition, booking.Code(err))

	// Owner walks the happy path to completion.
	for _, target := range []model.BookingStatus{
		model.BookingApproved, model.BookingPaymentPending, model.BookingCompleted,
	} {
		b, err = svc.Transition(ctx, b.ID, target, owner)
		require.NoError(t, err, "to %s", target)
		require.Equal(t, target, b.Status)
	}

	// Completed is terminal.
	_, err = svc.Transition(ctx, b.ID, model.BookingCancelled, renter)
	require.Equal(t, booking.ErrInvalidTransition, booking.Code(err))
}

func TestTransition_ExpiredPendingBlocksApprovalOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner6")
	renter := seedUser(t, db, "renter6")
	item := seedItem(t, db, owner, "50.00")

	b, err := svc.Create(ctx, renter, item, futureDay(1), futureDay(3))
	require.NoError(t, err)
	backdateBooking(t, db, b.ID, 72*time.Hour)

	_, err = svc.Transition(ctx, b.ID, model.BookingApproved, owner)
	require.Equal(t, booking.ErrExpired, booking.Code(err))

	// Rejecting a stale request is still allowed.
	got, err := svc.Transition(ctx, b.ID, model.BookingRejected, owner)
	require.NoError(t, err)
	require.Equal(t, model.BookingRejected, got.Status)
}

func TestGet_ParticipantsOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner7")
	renter := seedUser(t, db, "renter7")
	stranger := seedUser(t, db, "stranger7")
	item := seedItem(t, db, owner, "50.00")

	b, err := svc.Create(ctx, renter, item, futureDay(1), futureDay(3))
	require.NoError(t, err)

	_, err = svc.Get(ctx, b.ID, renter)
	require.NoError(t, err)
	_, err = svc.Get(ctx, b.ID, owner)
	require.NoError(t, err)
	_, err = svc.Get(ctx, b.ID, stranger)
	require.Equal(t, booking.ErrNotFound, booking.Code(err))
}

func TestAvailability(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner8")
	renter := seedUser(t, db, "renter8")
	item := seedItem(t, db, owner, "50.00")

	b, err := svc.Create(ctx, renter, item, futureDay(5), futureDay(8))
	require.NoError(t, err)

	windows, err := svc.Availability(ctx, item, futureDay(1), futureDay(30))
	require.NoError(t, err)
	require.Len(t, windows, 1)
	require.Equal(t, model.BookingPending, windows[0].Status)

	// Cancelled bookings free the calendar.
	_, err = svc.Transition(ctx, b.ID, model.BookingCancelled, renter)
	require.NoError(t, err)
	windows, err = svc.Availability(ctx, item, futureDay(1), futureDay(30))
	require.NoError(t, err)
	require.Empty(t, windows)
}

func TestLockExpiredPending_CutoffInclusive(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	repo := bookingrepo.New(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner10")
	renter := seedUser(t, db, "renter10")
	item := seedItem(t, db, owner, "50.00")

	b, err := svc.Create(ctx, renter, item, futureDay(1), futureDay(3))
	require.NoError(t, err)

	// Pin created_at so the cutoff can hit it exactly.
	createdAt := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	_, err = db.Exec(`UPDATE bookings SET created_at = $2 WHERE id = $1`, b.ID, createdAt)
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	// A booking exactly as old as the window is a sweep candidate.
	stale, err := repo.LockExpiredPending(ctx, tx, createdAt)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, b.ID, stale[0].ID)

	// One second younger than the cutoff is not.
	stale, err = repo.LockExpiredPending(ctx, tx, createdAt.Add(-time.Second))
	require.NoError(t, err)
	require.Empty(t, stale)
}

func TestSweeper(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(db)
	sw := booking.NewSweeper(db, bookingrepo.New(db), testLogger())
	ctx := context.Background()

	owner := seedUser(t, db, "owner9")
	renter := seedUser(t, db, "renter9")
	itemA := seedItem(t, db, owner, "50.00")
	itemB := seedItem(t, db, owner, "50.00")

	stale, err := svc.Create(ctx, renter, itemA, futureDay(1), futureDay(3))
	require.NoError(t, err)
	backdateBooking(t, db, stale.ID, 72*time.Hour)

	fresh, err := svc.Create(ctx, renter, itemB, futureDay(1), futureDay(3))
	require.NoError(t, err)

	// Dry run reports without mutating.
	report, err := sw.SweepExpired(ctx, 48*time.Hour, true)
	require.NoError(t, err)
	require.Equal(t, int64(1), report.ExpiredCount)
	require.Len(t, report.Candidates, 1)
	require.Equal(t, stale.ID, report.Candidates[0].BookingID)

	got, err := svc.Get(ctx, stale.ID, renter)
	require.NoError(t, err)
	require.Equal(t, model.BookingPending, got.Status)

	// Real sweep cancels only the stale one.
	report, err = sw.SweepExpired(ctx, 48*time.Hour, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), report.ExpiredCount)

	got, err = svc.Get(ctx, stale.ID, renter)
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, got.Status)

	got, err = svc.Get(ctx, fresh.ID, renter)
	require.NoError(t, err)
	require.Equal(t, model.BookingPending, got.Status)
}

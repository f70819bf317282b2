package booking

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	bookingrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/booking"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/util/database"
)

// SweepCandidate is one stale PENDING booking found by a sweep.
type SweepCandidate struct {
	BookingID int64     `json:"booking_id"`
	ItemID    int64     `json:"item_id"`
	RenterID  int64     `json:"renter_id"`
	CreatedAt time.Time `json:"created_at"`
	AgeHours  float64   `json:"age_hours"`
}

type SweepReport struct {
	ExpiredCount int64            `json:"expired_count"`
	DryRun       bool             `json:"dry_run"`
	Candidates   []SweepCandidate `json:"candidates,omitempty"`
}

type Sweeper interface {
	// SweepExpired cancels all PENDING bookings older than threshold in one
	// atomic batch. Rows locked by a concurrent sweep or an interactive
	// transition are skipped, not waited on. With dryRun the report lists
	// the candidates and nothing is mutated.
	SweepExpired(ctx context.Context, threshold time.Duration, dryRun bool) (*SweepReport, error)
}

type sweeper struct {
	db  *sql.DB
	r   bookingrepo.Repo
	log *slog.Logger
}

func NewSweeper(db *sql.DB, r bookingrepo.Repo, log *slog.Logger) Sweeper {
	return &sweeper{db: db, r: r, log: log}
}

func (s *sweeper) SweepExpired(ctx context.Context, threshold time.Duration, dryRun bool) (*SweepReport, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	report := &SweepReport{DryRun: dryRun}

	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		stale, err := s.r.LockExpiredPending(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		if dryRun {
			now := time.Now().UTC()
			for _, b := range stale {
				report.Candidates = append(report.Candidates, SweepCandidate{
					BookingID: b.ID,
					ItemID:    b.ItemID,
					RenterID:  b.RenterID,
					CreatedAt: b.CreatedAt,
					AgeHours:  now.Sub(b.CreatedAt).Hours(),
				})
			}
			report.ExpiredCount = int64(len(stale))
			return nil
		}

		ids := make([]int64, 0, len(stale))
		for _, b := range stale {
			ids = append(ids, b.ID)
		}
		n, err := s.r.CancelBatch(ctx, tx, ids)
		if err != nil {
			return err
		}
		report.ExpiredCount = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("expiry sweep finished",
		"expired", report.ExpiredCount,
		"dry_run", dryRun,
		"cutoff", cutoff,
	)
	return report, nil
}

// Run executes a sweep every interval until ctx is cancelled. Wired from
// main as a background goroutine.
func Run(ctx context.Context, s Sweeper, interval, threshold time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx, threshold, false); err != nil {
				// Transient lock contention resolves itself by the next tick.
				if database.IsRetryable(err) {
					log.Warn("expiry sweep deferred", "err", err)
				} else {
					log.Error("expiry sweep failed", "err", err)
				}
			}
		}
	}
}

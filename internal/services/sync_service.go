package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fleetpay/topup-gateway/internal/fleet"
	"github.com/fleetpay/topup-gateway/internal/metrics"
	"github.com/fleetpay/topup-gateway/internal/models"
	"github.com/fleetpay/topup-gateway/internal/notify"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
	"github.com/fleetpay/topup-gateway/internal/worker"
)

// virtual ids start well clear of anything the processor could mistake for
// an internal code
const firstVirtualID = 1000

const rosterLimit = 1000

// Roster lists the park's driver profiles.
type Roster interface {
	ListDrivers(ctx context.Context, workStatuses []string, limit int) ([]fleet.Driver, error)
}

// SyncService refreshes the account directory from the park roster. Existing
// mappings are never touched, so re-running against an unchanged roster is a
// no-op.
type SyncService struct {
	accounts repo.Accounts
	roster   Roster
	notifier notify.Notifier
	wp       *worker.Pool
	log      *slog.Logger
}

func NewSyncService(a repo.Accounts, r Roster, n notify.Notifier, wp *worker.Pool, log *slog.Logger) *SyncService {
	return &SyncService{accounts: a, roster: r, notifier: n, wp: wp, log: log}
}

// Run performs one synchronization pass. New drivers get the next virtual id
// (max existing + 1, starting at 1000) and their display name frozen from
// the roster. Run must not be invoked concurrently with itself; the
// scheduler's single-flight guard enforces that, since two overlapping runs
// would both compute the next id from the same state.
func (s *SyncService) Run(ctx context.Context) error {
	drivers, err := s.roster.ListDrivers(ctx, []string{"working"}, rosterLimit)
	if err != nil {
		s.log.Error("roster fetch failed", "err", err)
		return err
	}

	next, err := s.nextVirtualID(ctx)
	if err != nil {
		return err
	}

	seeding := next == firstVirtualID

	created := 0
	for _, d := range drivers {
		_, err := s.accounts.GetByDriverID(ctx, d.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		a := models.Account{
			VirtualID: strconv.FormatInt(next, 10),
			DriverID:  d.ID,
			Name:      displayName(d),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.accounts.Create(ctx, a); err != nil {
			s.log.Error("account create failed", "driver_id", d.ID, "err", err)
			return err
		}
		next++
		created++

		// the very first run just seeds the directory; notifying about the
		// whole park at once would be spam
		if !seeding {
			s.enqueueNotify(a, d.Phone)
		}
	}

	metrics.SyncRunsTotal.Inc()
	s.log.Info("roster sync finished", "roster_size", len(drivers), "created", created)
	return nil
}

func (s *SyncService) nextVirtualID(ctx context.Context) (int64, error) {
	max, err := s.accounts.MaxVirtualID(ctx)
	if err != nil {
		return 0, err
	}
	if max == 0 {
		return firstVirtualID, nil
	}
	return max + 1, nil
}

func (s *SyncService) enqueueNotify(a models.Account, phone string) {
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.NewDriver(ctx, a, phone); err != nil {
			s.log.Error("new driver notification failed", "driver_id", a.DriverID, "err", err)
		}
	})
}

func displayName(d fleet.Driver) string {
	return strings.TrimSpace(d.LastName + " " + d.FirstName)
}

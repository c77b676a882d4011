// Package distribution implements the periodic revenue distribution: it
// converts a period's pooled contributions and listening aggregates into
// per-artist payouts and per-charity totals.
package distribution

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/soundpool/engine/internal/model"
)

// Store is the data access the engine needs, implemented by *store.Store.
type Store interface {
	EligibleContributions(ctx context.Context, start, end time.Time) ([]model.Contribution, error)
	ListeningByUser(ctx context.Context, userID, period string) ([]model.ListeningRecord, error)
	UpsertArtistPayout(ctx context.Context, artistID, period string, amountCents, listenMs int64, contributorCount int) (bool, error)
	IncrementCharityReceived(ctx context.Context, charityID string, amountCents int64) error
	MarkContributionsProcessed(ctx context.Context, ids []string, at time.Time) error
}

// Summary is the structured result of one distribution run.
type Summary struct {
	Success                  bool   `json:"success"`
	Period                   string `json:"period"`
	ContributionsProcessed   int    `json:"contributionsProcessed"`
	PayoutsCreated           int    `json:"payoutsCreated"`
	PayoutsUpdated           int    `json:"payoutsUpdated"`
	ArtistsPaid              int    `json:"artistsPaid"`
	TotalDistributedCents    int64  `json:"totalDistributedCents"`
	TotalCharityCents        int64  `json:"totalCharityCents"`
	TotalPlatformCents       int64  `json:"totalPlatformCents"`
	UnallocatedArtistCents   int64  `json:"unallocatedArtistCents"`
	UnattributedCharityCents int64  `json:"unattributedCharityCents"`
	RoundingRemainderCents   int64  `json:"roundingRemainderCents"`
}

// Engine runs distribution batches. It must not run concurrently with
// itself: callers serialize runs (the distribution queue has concurrency
// 1 and the worker holds a redis lock across periods).
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// PeriodBounds parses a YYYY-MM period into its calendar-month interval
// [start, end).
func PeriodBounds(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: %w", period, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Run distributes every eligible contribution of the period. The batch is
// idempotent: processed contributions are stamped and a re-run finds
// nothing to do.
func (e *Engine) Run(ctx context.Context, period string) (*Summary, error) {
	start, end, err := PeriodBounds(period)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Success: true, Period: period}

	contributions, err := e.store.EligibleContributions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to select contributions: %w", err)
	}
	if len(contributions) == 0 {
		return summary, nil
	}

	artists := map[string]*artistAccumulator{}
	charities := map[string]int64{}
	processedIDs := make([]string, 0, len(contributions))

	for _, contribution := range contributions {
		records, err := e.store.ListeningByUser(ctx, contribution.UserID, period)
		if err != nil {
			return nil, fmt.Errorf("failed to load listening for user %s: %w", contribution.UserID, err)
		}

		allocation := Allocate(contribution, records)
		for artistID, share := range allocation.ArtistCents {
			acc := artists[artistID]
			if acc == nil {
				acc = &artistAccumulator{contributors: map[string]struct{}{}}
				artists[artistID] = acc
			}
			acc.amountCents += share
			acc.listenMs += allocation.ArtistListenMs[artistID]
			acc.contributors[contribution.UserID] = struct{}{}
		}

		if allocation.CharityID != "" {
			charities[allocation.CharityID] += allocation.CharityCents
			summary.TotalCharityCents += allocation.CharityCents
		} else {
			summary.UnattributedCharityCents += allocation.CharityCents
		}
		summary.TotalPlatformCents += allocation.PlatformCents
		summary.UnallocatedArtistCents += allocation.UnallocatedCents
		summary.RoundingRemainderCents += allocation.RemainderCents

		processedIDs = append(processedIDs, contribution.ID)
	}

	for _, artistID := range sortedKeys(artists) {
		acc := artists[artistID]
		if acc.amountCents == 0 {
			continue
		}
		created, err := e.store.UpsertArtistPayout(ctx, artistID, period,
			acc.amountCents, acc.listenMs, len(acc.contributors))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert payout for artist %s: %w", artistID, err)
		}
		if created {
			summary.PayoutsCreated++
		} else {
			summary.PayoutsUpdated++
		}
		summary.ArtistsPaid++
		summary.TotalDistributedCents += acc.amountCents
	}

	charityIDs := make([]string, 0, len(charities))
	for id := range charities {
		charityIDs = append(charityIDs, id)
	}
	sort.Strings(charityIDs)
	for _, charityID := range charityIDs {
		if err := e.store.IncrementCharityReceived(ctx, charityID, charities[charityID]); err != nil {
			return nil, fmt.Errorf("failed to credit charity %s: %w", charityID, err)
		}
	}

	if err := e.store.MarkContributionsProcessed(ctx, processedIDs, e.now()); err != nil {
		return nil, fmt.Errorf("failed to mark contributions processed: %w", err)
	}
	summary.ContributionsProcessed = len(processedIDs)

	log.Printf("Distribution %s: %d contributions, %d artists, %d cents distributed",
		period, summary.ContributionsProcessed, summary.ArtistsPaid, summary.TotalDistributedCents)
	return summary, nil
}

type artistAccumulator struct {
	amountCents  int64
	listenMs     int64
	contributors map[string]struct{}
}

func sortedKeys(m map[string]*artistAccumulator) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/soundpool/engine/internal/model"
)

func seedContribution(t *testing.T, s *Store, id string, status model.ContributionStatus, created time.Time, processed *time.Time) {
	t.Helper()
	c := model.Contribution{
		ID:                 id,
		UserID:             "u1",
		AmountCents:        1000,
		ArtistsPercentage:  80,
		CharityPercentage:  10,
		PlatformPercentage: 10,
		Status:             status,
		ProcessedAt:        processed,
		CreatedAt:          created,
	}
	if err := s.db.Create(&c).Error; err != nil {
		t.Fatalf("seed contribution %s: %v", id, err)
	}
}

func TestEligibleContributionsFiltering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	stamped := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seedContribution(t, s, "in-window", model.ContributionStatusCompleted, start.AddDate(0, 0, 5), nil)
	seedContribution(t, s, "already-processed", model.ContributionStatusCompleted, start.AddDate(0, 0, 6), &stamped)
	seedContribution(t, s, "still-pending", model.ContributionStatusPending, start.AddDate(0, 0, 7), nil)
	seedContribution(t, s, "previous-month", model.ContributionStatusCompleted, start.AddDate(0, 0, -2), nil)
	seedContribution(t, s, "next-month", model.ContributionStatusCompleted, end, nil)

	got, err := s.EligibleContributions(ctx, start, end)
	if err != nil {
		t.Fatalf("EligibleContributions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "in-window" {
		t.Fatalf("got %d contributions %v, want only in-window", len(got), got)
	}
}

func TestUpsertArtistPayoutCreatesThenAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.UpsertArtistPayout(ctx, "a1", "2026-07", 480, 600, 1)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Error("first upsert should create the row")
	}

	created, err = s.UpsertArtistPayout(ctx, "a1", "2026-07", 320, 400, 2)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert should update the existing row")
	}

	payout, err := s.GetArtistPayout(ctx, "a1", "2026-07")
	if err != nil {
		t.Fatalf("GetArtistPayout: %v", err)
	}
	if payout.AmountCents != 800 {
		t.Errorf("AmountCents = %d, want accumulated 800", payout.AmountCents)
	}
	if payout.TotalListenMs != 1000 {
		t.Errorf("TotalListenMs = %d, want accumulated 1000", payout.TotalListenMs)
	}
	if payout.ContributorCount != 2 {
		t.Errorf("ContributorCount = %d, want last batch's 2", payout.ContributorCount)
	}

	// A different period is a separate row.
	created, err = s.UpsertArtistPayout(ctx, "a1", "2026-08", 100, 50, 1)
	if err != nil {
		t.Fatalf("other-period upsert: %v", err)
	}
	if !created {
		t.Error("a new period should create a new row")
	}
}

func TestMarkContributionsProcessedOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	seedContribution(t, s, "c1", model.ContributionStatusCompleted, created, nil)

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := s.MarkContributionsProcessed(ctx, []string{"c1"}, first); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	second := first.Add(48 * time.Hour)
	if err := s.MarkContributionsProcessed(ctx, []string{"c1"}, second); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	var c model.Contribution
	if err := s.db.First(&c, "id = ?", "c1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if c.ProcessedAt == nil || c.ProcessedAt.Unix() != first.Unix() {
		t.Errorf("ProcessedAt = %v, want the first stamp %v", c.ProcessedAt, first)
	}

	// Empty id list must be a no-op, not an invalid IN clause.
	if err := s.MarkContributionsProcessed(ctx, nil, first); err != nil {
		t.Fatalf("empty mark: %v", err)
	}
}

func TestIncrementCharityReceived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.IncrementCharityReceived(ctx, "ch1", 100); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if err := s.IncrementCharityReceived(ctx, "ch1", 250); err != nil {
		t.Fatalf("second increment: %v", err)
	}

	charity, err := s.GetCharity(ctx, "ch1")
	if err != nil {
		t.Fatalf("GetCharity: %v", err)
	}
	if charity.TotalReceivedCents != 350 {
		t.Errorf("TotalReceivedCents = %d, want 350", charity.TotalReceivedCents)
	}
}

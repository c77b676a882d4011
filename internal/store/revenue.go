package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundpool/engine/internal/model"
)

// EligibleContributions selects completed, not-yet-processed contributions
// created inside [start, end).
func (s *Store) EligibleContributions(ctx context.Context, start, end time.Time) ([]model.Contribution, error) {
	var contributions []model.Contribution
	err := s.db.WithContext(ctx).
		Where("status = ? AND processed_at IS NULL", model.ContributionStatusCompleted).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at asc").
		Find(&contributions).Error
	return contributions, err
}

// ListeningByUser returns the per-artist listening aggregates of one user
// for one period.
func (s *Store) ListeningByUser(ctx context.Context, userID, period string) ([]model.ListeningRecord, error) {
	var records []model.ListeningRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND period = ?", userID, period).
		Find(&records).Error
	return records, err
}

// UpsertArtistPayout accumulates a batch's allocation into the payout row
// for (artist, period). The increment itself is a single atomic UPDATE;
// the contributor count is overwritten with the batch's recomputed value.
// Returns true when a new row was created.
func (s *Store) UpsertArtistPayout(ctx context.Context, artistID, period string, amountCents, listenMs int64, contributorCount int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.ArtistPayout{}).
		Where("artist_id = ? AND period = ?", artistID, period).
		Updates(map[string]interface{}{
			"amount_cents":      gorm.Expr("amount_cents + ?", amountCents),
			"total_listen_ms":   gorm.Expr("total_listen_ms + ?", listenMs),
			"contributor_count": contributorCount,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	payout := model.ArtistPayout{
		ID:               uuid.New().String(),
		ArtistID:         artistID,
		Period:           period,
		AmountCents:      amountCents,
		ContributorCount: contributorCount,
		TotalListenMs:    listenMs,
		Status:           model.PayoutStatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "artist_id"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount_cents":      gorm.Expr("artist_payouts.amount_cents + ?", amountCents),
			"total_listen_ms":   gorm.Expr("artist_payouts.total_listen_ms + ?", listenMs),
			"contributor_count": contributorCount,
			"updated_at":        time.Now(),
		}),
	}).Create(&payout).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetArtistPayout fetches the payout row for (artist, period).
func (s *Store) GetArtistPayout(ctx context.Context, artistID, period string) (*model.ArtistPayout, error) {
	var payout model.ArtistPayout
	err := s.db.WithContext(ctx).
		Where("artist_id = ? AND period = ?", artistID, period).
		First(&payout).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &payout, nil
}

// IncrementCharityReceived adds a batch's charity share to the charity's
// running total, creating the row when the charity is not yet known here.
func (s *Store) IncrementCharityReceived(ctx context.Context, charityID string, amountCents int64) error {
	res := s.db.WithContext(ctx).Model(&model.Charity{}).
		Where("id = ?", charityID).
		Updates(map[string]interface{}{
			"total_received_cents": gorm.Expr("total_received_cents + ?", amountCents),
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&model.Charity{
		ID:                 charityID,
		TotalReceivedCents: amountCents,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}).Error
}

// GetCharity fetches one charity row by id.
func (s *Store) GetCharity(ctx context.Context, id string) (*model.Charity, error) {
	var charity model.Charity
	if err := s.db.WithContext(ctx).First(&charity, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &charity, nil
}

// MarkContributionsProcessed stamps processedAt exactly once per
// contribution. Already-stamped rows are left untouched, which keeps a
// re-run of the same period a no-op.
func (s *Store) MarkContributionsProcessed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Contribution{}).
		Where("id IN ? AND processed_at IS NULL", ids).
		Update("processed_at", at).Error
}

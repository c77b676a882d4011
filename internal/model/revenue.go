package model

import "time"

// ContributionStatus tracks the payment lifecycle of a contribution.
// Only completed contributions are ever distributed.
type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusCompleted ContributionStatus = "completed"
	ContributionStatusFailed    ContributionStatus = "failed"
	ContributionStatusRefunded  ContributionStatus = "refunded"
)

// Contribution is one pooled payment from a user. The three percentage
// fields always sum to 100. ProcessedAt is set exactly once by the
// distribution engine, which makes a batch idempotent against re-runs.
type Contribution struct {
	ID                 string             `json:"id" gorm:"primaryKey"`
	UserID             string             `json:"userId" gorm:"index"`
	AmountCents        int64              `json:"amountCents"`
	ArtistsPercentage  int                `json:"artistsPercentage"`
	CharityPercentage  int                `json:"charityPercentage"`
	PlatformPercentage int                `json:"platformPercentage"`
	SelectedCharityID  *string            `json:"selectedCharityId,omitempty"`
	Status             ContributionStatus `json:"status" gorm:"index"`
	ProcessedAt        *time.Time         `json:"processedAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" gorm:"index"`
}

// PayoutStatus tracks whether a payout has been sent to the provider.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

// ArtistPayout is the accumulated payout for one artist in one calendar
// period. Keyed by (artistId, period); re-running a distribution
// accumulates into the existing row.
type ArtistPayout struct {
	ID               string       `json:"id" gorm:"primaryKey"`
	ArtistID         string       `json:"artistId" gorm:"uniqueIndex:idx_payout_artist_period"`
	Period           string       `json:"period" gorm:"uniqueIndex:idx_payout_artist_period"`
	AmountCents      int64        `json:"amountCents"`
	ContributorCount int          `json:"contributorCount"`
	TotalListenMs    int64        `json:"totalListenMs"`
	Status           PayoutStatus `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Charity accumulates the charity share of contributions that selected it.
type Charity struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	Name               string    `json:"name"`
	TotalReceivedCents int64     `json:"totalReceivedCents"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ListeningRecord is the per-period aggregate of a user's listening time
// for one artist. Produced outside this service; read-only input to the
// distribution engine.
type ListeningRecord struct {
	ID            string `json:"id" gorm:"primaryKey"`
	UserID        string `json:"userId" gorm:"index:idx_listening_user_period"`
	ArtistID      string `json:"artistId"`
	Period        string `json:"period" gorm:"index:idx_listening_user_period"`
	TotalListenMs int64  `json:"totalListenMs"`
}

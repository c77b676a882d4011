package distribution

import "github.com/soundpool/engine/internal/model"

// Allocation is the pure split of one contribution. All currency
// arithmetic is integer cents; per-artist shares are floored, so the sum
// of shares can undershoot the artist pool by up to artistCount-1 cents.
// The shortfall is reported, not redistributed.
type Allocation struct {
	ArtistCents    map[string]int64
	ArtistListenMs map[string]int64
	CharityID      string
	CharityCents   int64
	PlatformCents  int64
	// UnallocatedCents is the whole artist pool when the contributor had
	// no listening time in the period: with no proportionality basis it
	// stays unpaid rather than guessing a recipient.
	UnallocatedCents int64
	RemainderCents   int64
}

// Allocate splits one contribution across the artists its contributor
// listened to, proportionally to listening time.
func Allocate(contribution model.Contribution, records []model.ListeningRecord) Allocation {
	allocation := Allocation{
		ArtistCents:    map[string]int64{},
		ArtistListenMs: map[string]int64{},
		CharityCents:   contribution.AmountCents * int64(contribution.CharityPercentage) / 100,
		PlatformCents:  contribution.AmountCents * int64(contribution.PlatformPercentage) / 100,
	}
	if contribution.SelectedCharityID != nil {
		allocation.CharityID = *contribution.SelectedCharityID
	}

	artistPool := contribution.AmountCents * int64(contribution.ArtistsPercentage) / 100

	var totalListenMs int64
	for _, record := range records {
		totalListenMs += record.TotalListenMs
	}
	if totalListenMs == 0 {
		allocation.UnallocatedCents = artistPool
		return allocation
	}

	var allocated int64
	for _, record := range records {
		if record.TotalListenMs <= 0 {
			continue
		}
		share := artistPool * record.TotalListenMs / totalListenMs
		allocation.ArtistCents[record.ArtistID] += share
		allocation.ArtistListenMs[record.ArtistID] += record.TotalListenMs
		allocated += share
	}
	allocation.RemainderCents = artistPool - allocated
	return allocation
}

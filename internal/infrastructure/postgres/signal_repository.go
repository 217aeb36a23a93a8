package postgres

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joacominatel/pulsefeed/internal/domain"
)

// signal aggregation parameters.
const (
	// SignalWindow is how far back interactions feed a profile.
	SignalWindow = 90 * 24 * time.Hour

	favoriteCategoryLimit = 5
	peakHourLimit         = 5

	// minPeakSamples is the history needed before peak hours are trusted.
	minPeakSamples = 20
)

// SignalRepository implements domain.SignalStore using Postgres.
// profiles are aggregated on read from interactions, follows, memberships
// and the optional location row.
type SignalRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewSignalRepository creates a new SignalRepository.
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

const (
	signalInteractionStatsQuery = `
		SELECT
			COUNT(*) FILTER (WHERE i.kind = 'like' AND p.category IN ('purchase', 'event_recommendation')),
			COUNT(*) FILTER (WHERE i.kind = 'like' AND p.category IN ('personal', 'community', 'activity')),
			COUNT(*) FILTER (WHERE i.kind = 'comment'),
			COUNT(*) FILTER (WHERE i.kind = 'save'),
			COUNT(*)
		FROM interactions i
		JOIN posts p ON p.id = i.post_id
		WHERE i.user_id = $1 AND i.occurred_at >= $2`

	signalFollowCountsQuery = `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1),
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1)`

	signalFavoriteCategoriesQuery = `
		SELECT p.payload->>'event_category' AS event_category, COUNT(*) AS n
		FROM interactions i
		JOIN posts p ON p.id = i.post_id
		WHERE i.user_id = $1
		  AND i.occurred_at >= $2
		  AND i.kind IN ('like', 'save')
		  AND p.category IN ('purchase', 'event_recommendation')
		  AND COALESCE(p.payload->>'event_category', '') <> ''
		GROUP BY event_category
		ORDER BY n DESC, event_category
		LIMIT $3`

	signalMembershipsQuery = `
		SELECT community_id FROM community_members WHERE user_id = $1`

	signalActiveHoursQuery = `
		SELECT EXTRACT(HOUR FROM i.occurred_at AT TIME ZONE 'UTC')::int AS hour, COUNT(*) AS n
		FROM interactions i
		WHERE i.user_id = $1 AND i.occurred_at >= $2
		GROUP BY hour`

	signalLocationQuery = `
		SELECT latitude, longitude, radius_km FROM user_locations WHERE user_id = $1`
)

// signalRows is everything the store reads for one viewer.
type signalRows struct {
	likesOnPurchases int64
	likesOnSocial    int64
	comments         int64
	saves            int64
	interactions     int64

	following int64
	followers int64

	favoriteCategories []string
	memberships        []domain.CommunityID

	// hourCounts maps a UTC hour to the number of interactions in it.
	hourCounts map[int]int64

	location *domain.LocationPreference
}

// FetchSignalProfile aggregates the viewer's profile.
// a viewer with no history gets a profile equal to the neutral default.
func (r *SignalRepository) FetchSignalProfile(ctx context.Context, viewerID domain.UserID) (*domain.SignalProfile, error) {
	viewer := viewerID.UUID()
	since := r.now().Add(-SignalWindow)

	batch := &pgx.Batch{}
	batch.Queue(signalInteractionStatsQuery, viewer, since)
	batch.Queue(signalFollowCountsQuery, viewer)
	batch.Queue(signalFavoriteCategoriesQuery, viewer, since, favoriteCategoryLimit)
	batch.Queue(signalMembershipsQuery, viewer)
	batch.Queue(signalActiveHoursQuery, viewer, since)
	batch.Queue(signalLocationQuery, viewer)

	br := GetQuerier(ctx, r.pool).SendBatch(ctx, batch)
	defer br.Close()

	var rows signalRows

	err := br.QueryRow().Scan(
		&rows.likesOnPurchases, &rows.likesOnSocial, &rows.comments, &rows.saves, &rows.interactions,
	)
	if err != nil {
		return nil, fmt.Errorf("querying interaction stats: %w", err)
	}

	if err := br.QueryRow().Scan(&rows.following, &rows.followers); err != nil {
		return nil, fmt.Errorf("querying follow counts: %w", err)
	}

	if rows.favoriteCategories, err = scanFavoriteCategories(br); err != nil {
		return nil, err
	}

	if rows.memberships, err = scanMemberships(br); err != nil {
		return nil, err
	}

	if rows.hourCounts, err = scanHourCounts(br); err != nil {
		return nil, err
	}

	var loc domain.LocationPreference
	err = br.QueryRow().Scan(&loc.Latitude, &loc.Longitude, &loc.RadiusKm)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("querying location: %w", err)
	default:
		rows.location = &loc
	}

	return buildProfile(viewerID, rows), nil
}

func scanFavoriteCategories(br pgx.BatchResults) ([]string, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("querying favorite categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scanning favorite category row: %w", err)
		}
		out = append(out, category)
	}
	return out, rows.Err()
}

func scanMemberships(br pgx.BatchResults) ([]domain.CommunityID, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	var out []domain.CommunityID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		id, err := domain.ParseCommunityID(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupted community id in database: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanHourCounts(br pgx.BatchResults) (map[int]int64, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("querying active hours: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64, 24)
	for rows.Next() {
		var (
			hour int
			n    int64
		)
		if err := rows.Scan(&hour, &n); err != nil {
			return nil, fmt.Errorf("scanning active hour row: %w", err)
		}
		out[hour] = n
	}
	return out, rows.Err()
}

// buildProfile turns the raw aggregates into a profile.
func buildProfile(viewerID domain.UserID, rows signalRows) *domain.SignalProfile {
	profile := domain.DefaultSignalProfile(viewerID)

	profile.LikesOnPurchases = rows.likesOnPurchases
	profile.LikesOnSocial = rows.likesOnSocial
	profile.FollowingCount = rows.following
	profile.FollowersCount = rows.followers

	if rows.interactions > 0 {
		profile.CommentsRatio = float64(rows.comments) / float64(rows.interactions)
		profile.SavesRatio = float64(rows.saves) / float64(rows.interactions)
	}

	for _, c := range rows.favoriteCategories {
		if c != "" {
			profile.FavoriteCategories[c] = struct{}{}
		}
	}

	for _, id := range rows.memberships {
		profile.CommunityMemberships[id] = struct{}{}
	}

	if hours := peakHours(rows.hourCounts); len(hours) > 0 {
		profile.PeakActivityHours = make(map[int]struct{}, len(hours))
		for _, h := range hours {
			profile.PeakActivityHours[h] = struct{}{}
		}
	}

	profile.Location = rows.location
	return profile
}

// peakHours returns the busiest hours, or nil when the history is too thin
// to beat the defaults. ties go to the earlier hour.
func peakHours(counts map[int]int64) []int {
	var total int64
	for _, n := range counts {
		total += n
	}
	if total < minPeakSamples {
		return nil
	}

	hours := make([]int, 0, len(counts))
	for h, n := range counts {
		if h >= 0 && h < 24 && n > 0 {
			hours = append(hours, h)
		}
	}
	slices.SortFunc(hours, func(a, b int) int {
		if counts[a] != counts[b] {
			return cmp.Compare(counts[b], counts[a])
		}
		return cmp.Compare(a, b)
	})

	if len(hours) > peakHourLimit {
		hours = hours[:peakHourLimit]
	}
	return hours
}

package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joacominatel/pulsefeed/internal/domain"
)

// InteractionRepository implements domain.InteractionRepository using Postgres.
// both methods join a transaction from the context when there is one.
type InteractionRepository struct {
	pool *pgxpool.Pool
}

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(pool *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{pool: pool}
}

var interactionColumns = []string{"id", "post_id", "user_id", "kind", "metadata", "occurred_at"}

// SaveBatch persists interactions with COPY and returns the rows written.
func (r *InteractionRepository) SaveBatch(ctx context.Context, batch []*domain.Interaction) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(batch))
	for _, i := range batch {
		metadataJSON, err := i.MetadataJSON()
		if err != nil {
			return 0, fmt.Errorf("serializing metadata for interaction %s: %w", i.ID().String(), err)
		}

		rows = append(rows, []any{
			i.ID().UUID(),
			i.PostID().String(),
			i.UserID().UUID(),
			i.Kind().String(),
			string(metadataJSON),
			i.OccurredAt(),
		})
	}

	n, err := GetQuerier(ctx, r.pool).CopyFrom(
		ctx,
		pgx.Identifier{"interactions"},
		interactionColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("batch inserting interactions: %w", err)
	}
	return n, nil
}

const applyEngagementQuery = `
	UPDATE posts SET
		likes    = GREATEST(likes + $2, 0),
		comments = GREATEST(comments + $3, 0),
		saves    = GREATEST(saves + $4, 0),
		shares   = GREATEST(shares + $5, 0),
		reports  = GREATEST(reports + $6, 0)
	WHERE id = $1`

// ApplyEngagement adds counter deltas to posts in one round trip.
// posts are updated in id order so concurrent flushes lock rows in the
// same order.
func (r *InteractionRepository) ApplyEngagement(ctx context.Context, deltas map[domain.PostID]domain.Engagement) error {
	ids := make([]domain.PostID, 0, len(deltas))
	for id, e := range deltas {
		if !e.IsZero() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)

	batch := &pgx.Batch{}
	for _, id := range ids {
		e := deltas[id]
		batch.Queue(applyEngagementQuery, id.String(), e.Likes, e.Comments, e.Saves, e.Shares, e.Reports)
	}

	br := GetQuerier(ctx, r.pool).SendBatch(ctx, batch)
	defer br.Close()

	for _, id := range ids {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("applying engagement to post %s: %w", id.String(), err)
		}
	}
	return nil
}

package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/joacominatel/pulsefeed/internal/domain"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
)

// ErrIngestionBacklog is returned when the interaction buffer is full.
var ErrIngestionBacklog = errors.New("interaction buffer full, try again later")

// PostChecker reports whether a post exists.
// implemented by the post store, optionally behind a cache.
type PostChecker interface {
	Exists(ctx context.Context, id domain.PostID) (bool, error)
}

// InteractionQueue accepts interactions for asynchronous persistence.
// Enqueue must not block; it returns ErrIngestionBacklog when full.
type InteractionQueue interface {
	Enqueue(i *domain.Interaction) error
}

// RecordInteractionInput contains the data needed to record an interaction.
type RecordInteractionInput struct {
	ViewerID string
	PostID   string
	Kind     string
	Metadata map[string]any // optional
}

// RecordInteractionOutput contains the result of recording an interaction.
type RecordInteractionOutput struct {
	InteractionID string
	PostID        string
	Kind          string
	Accepted      bool
}

// RecordInteractionUseCase validates viewer interactions and queues them.
// counters and trending scores are updated by the ingestion worker.
type RecordInteractionUseCase struct {
	posts        PostChecker
	queue        InteractionQueue
	timeProvider TimeProvider
	logger       *logging.Logger
}

// NewRecordInteractionUseCase creates a new RecordInteractionUseCase.
func NewRecordInteractionUseCase(
	posts PostChecker,
	queue InteractionQueue,
	logger *logging.Logger,
) *RecordInteractionUseCase {
	return &RecordInteractionUseCase{
		posts:        posts,
		queue:        queue,
		timeProvider: RealTime,
		logger:       logger.WithComponent("record_interaction"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *RecordInteractionUseCase) WithTimeProvider(tp TimeProvider) *RecordInteractionUseCase {
	uc.timeProvider = tp
	return uc
}

// Execute validates and queues a new interaction.
func (uc *RecordInteractionUseCase) Execute(ctx context.Context, input RecordInteractionInput) (*RecordInteractionOutput, error) {
	viewerID, err := domain.ParseUserID(input.ViewerID)
	if err != nil {
		uc.logger.Warn("interaction rejected: invalid viewer id",
			"viewer_id", input.ViewerID,
			"reason", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	postID, err := domain.ParsePostID(input.PostID)
	if err != nil {
		uc.logger.Warn("interaction rejected: invalid post id",
			"viewer_id", viewerID.String(),
			"reason", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	kind, err := domain.ParseInteractionKind(input.Kind)
	if err != nil {
		uc.logger.Warn("interaction rejected: invalid kind",
			"viewer_id", viewerID.String(),
			"kind", input.Kind,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	exists, err := uc.posts.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("post lookup: %w", err)
	}
	if !exists {
		uc.logger.Warn("interaction rejected: post not found",
			"post_id", postID.String(),
			"outcome", "rejected",
		)
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}

	interaction, err := domain.NewInteraction(postID, viewerID, kind, input.Metadata, uc.timeProvider())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := uc.queue.Enqueue(interaction); err != nil {
		uc.logger.Warn("interaction dropped",
			"post_id", postID.String(),
			"kind", kind.String(),
			"error", err.Error(),
		)
		return nil, err
	}

	uc.logger.Debug("interaction queued",
		"interaction_id", interaction.ID().String(),
		"post_id", postID.String(),
		"kind", kind.String(),
	)

	return &RecordInteractionOutput{
		InteractionID: interaction.ID().String(),
		PostID:        postID.String(),
		Kind:          kind.String(),
		Accepted:      true,
	}, nil
}

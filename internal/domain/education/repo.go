package education

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	CreateTopic(ctx context.Context, t *HealthTopic) error
	ListTopics(ctx context.Context) ([]*HealthTopic, error)

	CreateArticle(ctx context.Context, a *HealthArticle) error
	GetArticle(ctx context.Context, id uuid.UUID) (*HealthArticle, error)
	ListArticlesByTopic(ctx context.Context, topicID uuid.UUID) ([]*HealthArticle, error)

	// UpsertProgress writes the read/bookmarked flags, rewriting the row in
	// place when one already exists for (user, article).
	UpsertProgress(ctx context.Context, p *ArticleProgress) error
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*ArticleProgress, error)
}

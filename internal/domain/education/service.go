package education

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateTopic(ctx context.Context, t *HealthTopic) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.CreateTopic(ctx, t)
}

func (s *Service) ListTopics(ctx context.Context) ([]*HealthTopic, error) {
	return s.repo.ListTopics(ctx)
}

func (s *Service) CreateArticle(ctx context.Context, a *HealthArticle) error {
	if a.TopicID == uuid.Nil {
		return fmt.Errorf("topic_id is required")
	}
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if a.Body == "" {
		return fmt.Errorf("body is required")
	}
	return s.repo.CreateArticle(ctx, a)
}

func (s *Service) GetArticle(ctx context.Context, id uuid.UUID) (*HealthArticle, error) {
	return s.repo.GetArticle(ctx, id)
}

func (s *Service) ListArticles(ctx context.Context, topicID uuid.UUID) ([]*HealthArticle, error) {
	return s.repo.ListArticlesByTopic(ctx, topicID)
}

// SaveProgress upserts the user's read/bookmarked flags for an article.
// Idempotent: repeats rewrite the single (user, article) row.
func (s *Service) SaveProgress(ctx context.Context, userID, articleID uuid.UUID, read, bookmarked bool) (*ArticleProgress, error) {
	if _, err := s.repo.GetArticle(ctx, articleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p := &ArticleProgress{UserID: userID, ArticleID: articleID, Read: read, Bookmarked: bookmarked}
	if err := s.repo.UpsertProgress(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Progress(ctx context.Context, userID uuid.UUID) ([]*ArticleProgress, error) {
	return s.repo.ListProgress(ctx, userID)
}

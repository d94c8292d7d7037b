package education

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medtrack/adherence/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) CreateTopic(ctx context.Context, t *HealthTopic) error {
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_topic (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		t.ID, t.Name, t.Description).Scan(&t.CreatedAt)
}

func (r *repoPG) ListTopics(ctx context.Context) ([]*HealthTopic, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, description, created_at FROM health_topic ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HealthTopic
	for rows.Next() {
		var t HealthTopic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

func (r *repoPG) CreateArticle(ctx context.Context, a *HealthArticle) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_article (id, topic_id, title, summary, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		a.ID, a.TopicID, a.Title, a.Summary, a.Body).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetArticle(ctx context.Context, id uuid.UUID) (*HealthArticle, error) {
	var a HealthArticle
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, topic_id, title, summary, body, created_at, updated_at
		FROM health_article WHERE id = $1`, id).
		Scan(&a.ID, &a.TopicID, &a.Title, &a.Summary, &a.Body, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) ListArticlesByTopic(ctx context.Context, topicID uuid.UUID) ([]*HealthArticle, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, topic_id, title, summary, body, created_at, updated_at
		FROM health_article WHERE topic_id = $1 ORDER BY title`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HealthArticle
	for rows.Next() {
		var a HealthArticle
		if err := rows.Scan(&a.ID, &a.TopicID, &a.Title, &a.Summary, &a.Body, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

// UpsertProgress leans on the unique index over (user_id, article_id): a
// repeat update rewrites the flags in place.
func (r *repoPG) UpsertProgress(ctx context.Context, p *ArticleProgress) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO article_progress (id, user_id, article_id, read, bookmarked, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, article_id)
		DO UPDATE SET read = EXCLUDED.read, bookmarked = EXCLUDED.bookmarked, updated_at = NOW()
		RETURNING id, updated_at`,
		p.ID, p.UserID, p.ArticleID, p.Read, p.Bookmarked).Scan(&p.ID, &p.UpdatedAt)
}

func (r *repoPG) ListProgress(ctx context.Context, userID uuid.UUID) ([]*ArticleProgress, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, user_id, article_id, read, bookmarked, updated_at
		FROM article_progress WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ArticleProgress
	for rows.Next() {
		var p ArticleProgress
		if err := rows.Scan(&p.ID, &p.UserID, &p.ArticleID, &p.Read, &p.Bookmarked, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

package education

import (
	"time"

	"github.com/google/uuid"
)

// HealthTopic groups articles, e.g. "Blood Pressure" or "Diabetes".
type HealthTopic struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HealthArticle is one piece of educational content within a topic. Summary
// is the list-view teaser; Body is the full text.
type HealthArticle struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TopicID   uuid.UUID `db:"topic_id" json:"topic_id"`
	Title     string    `db:"title" json:"title"`
	Summary   *string   `db:"summary" json:"summary,omitempty"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ArticleProgress is a user's state for one article. One row per
// (user, article); repeated updates upsert in place.
type ArticleProgress struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	ArticleID  uuid.UUID `db:"article_id" json:"article_id"`
	Read       bool      `db:"read" json:"read"`
	Bookmarked bool      `db:"bookmarked" json:"bookmarked"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

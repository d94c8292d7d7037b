package education

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	topics   map[uuid.UUID]*HealthTopic
	articles map[uuid.UUID]*HealthArticle
	progress map[[2]uuid.UUID]*ArticleProgress // (user, article)
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		topics:   make(map[uuid.UUID]*HealthTopic),
		articles: make(map[uuid.UUID]*HealthArticle),
		progress: make(map[[2]uuid.UUID]*ArticleProgress),
	}
}

func (m *mockRepo) CreateTopic(_ context.Context, t *HealthTopic) error {
	t.ID = uuid.New(); m.topics[t.ID] = t; return nil
}
func (m *mockRepo) ListTopics(_ context.Context) ([]*HealthTopic, error) {
	var r []*HealthTopic; for _, t := range m.topics { r = append(r, t) }; return r, nil
}
func (m *mockRepo) CreateArticle(_ context.Context, a *HealthArticle) error {
	a.ID = uuid.New(); m.articles[a.ID] = a; return nil
}
func (m *mockRepo) GetArticle(_ context.Context, id uuid.UUID) (*HealthArticle, error) {
	a, ok := m.articles[id]; if !ok { return nil, ErrNotFound }; return a, nil
}
func (m *mockRepo) ListArticlesByTopic(_ context.Context, topicID uuid.UUID) ([]*HealthArticle, error) {
	var r []*HealthArticle; for _, a := range m.articles { if a.TopicID == topicID { r = append(r, a) } }; return r, nil
}
func (m *mockRepo) UpsertProgress(_ context.Context, p *ArticleProgress) error {
	key := [2]uuid.UUID{p.UserID, p.ArticleID}
	if existing, ok := m.progress[key]; ok {
		existing.Read = p.Read
		existing.Bookmarked = p.Bookmarked
		existing.UpdatedAt = time.Now()
		*p = *existing
		return nil
	}
	p.ID = uuid.New()
	p.UpdatedAt = time.Now()
	m.progress[key] = p
	return nil
}
func (m *mockRepo) ListProgress(_ context.Context, userID uuid.UUID) ([]*ArticleProgress, error) {
	var r []*ArticleProgress
	for _, p := range m.progress {
		if p.UserID == userID {
			r = append(r, p)
		}
	}
	return r, nil
}

func seedArticle(t *testing.T, svc *Service) *HealthArticle {
	t.Helper()
	topic := &HealthTopic{Name: "Blood Pressure"}
	if err := svc.CreateTopic(context.Background(), topic); err != nil {
		t.Fatal(err)
	}
	a := &HealthArticle{TopicID: topic.ID, Title: "Understanding Hypertension", Body: "..."}
	if err := svc.CreateArticle(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSaveProgress_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	a := seedArticle(t, svc)
	userID := uuid.New()

	first, err := svc.SaveProgress(context.Background(), userID, a.ID, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.SaveProgress(context.Background(), userID, a.ID, true, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Error("repeat save must reuse the existing progress row")
	}
	if !second.Read || !second.Bookmarked {
		t.Errorf("expected flags updated in place, got read=%v bookmarked=%v", second.Read, second.Bookmarked)
	}
	if len(repo.progress) != 1 {
		t.Errorf("expected 1 progress row, got %d", len(repo.progress))
	}
}

func TestSaveProgress_UnknownArticle(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.SaveProgress(context.Background(), uuid.New(), uuid.New(), true, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProgress_PerUser(t *testing.T) {
	svc := NewService(newMockRepo())
	a := seedArticle(t, svc)
	alice, bob := uuid.New(), uuid.New()

	svc.SaveProgress(context.Background(), alice, a.ID, true, false)

	got, err := svc.Progress(context.Background(), alice)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected alice to have 1 progress row, got %d (%v)", len(got), err)
	}
	got, err = svc.Progress(context.Background(), bob)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected bob to have no progress, got %d (%v)", len(got), err)
	}
}

func TestCreateArticle_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	cases := []*HealthArticle{
		{Title: "t", Body: "b"},
		{TopicID: uuid.New(), Body: "b"},
		{TopicID: uuid.New(), Title: "t"},
	}
	for i, a := range cases {
		if err := svc.CreateArticle(context.Background(), a); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

package testutil

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"

	"gorm.io/gorm"
)

// CreateUser inserts a user with the given role; email is derived from username.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	c := models.NewCategory(models.Taxonomy{Name: name, Slug: slug})
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create category %s: %v", slug, err)
	}
	return &c
}

func CreateGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	t.Helper()
	g := models.NewGenre(models.Taxonomy{Name: name, Slug: slug})
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("create genre %s: %v", slug, err)
	}
	return &g
}

// CreateTitle inserts a title linked to the given category and genres.
func CreateTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	if err := db.Omit("Category").Create(title).Error; err != nil {
		t.Fatalf("create title %s: %v", name, err)
	}
	for _, g := range genres {
		if err := db.Create(&models.TitleGenre{TitleID: title.ID, GenreID: g.ID}).Error; err != nil {
			t.Fatalf("link genre %s: %v", g.Slug, err)
		}
	}
	return title
}

func CreateReview(t *testing.T, db *gorm.DB, title *models.Title, author *models.User, score *int) *models.Review {
	t.Helper()
	review := &models.Review{
		TitleID:  title.ID,
		AuthorID: author.ID,
		Text:     "review by " + author.Username,
		Score:    score,
		PubDate:  time.Now().UTC(),
	}
	if err := db.Omit("Title", "Author").Create(review).Error; err != nil {
		t.Fatalf("create review: %v", err)
	}
	return review
}

func CreateComment(t *testing.T, db *gorm.DB, review *models.Review, author *models.User) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		ReviewID: review.ID,
		AuthorID: author.ID,
		Text:     "comment by " + author.Username,
		PubDate:  time.Now().UTC(),
	}
	if err := db.Omit("Review", "Author").Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }

// SentMessage is one message captured by RecordingNotifier.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// RecordingNotifier keeps every message instead of delivering it.
// When Err is set, Send fails with it and records nothing.
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []SentMessage
	Err  error
}

func (n *RecordingNotifier) Send(to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

var codePattern = regexp.MustCompile(`confirmation code: (\S+)`)

// LastCode returns the confirmation code from the most recent message to addr.
func (n *RecordingNotifier) LastCode(t *testing.T, addr string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.Sent) - 1; i >= 0; i-- {
		if n.Sent[i].To != addr {
			continue
		}
		if m := codePattern.FindStringSubmatch(n.Sent[i].Body); m != nil {
			return m[1]
		}
	}
	t.Fatalf("no confirmation code sent to %s", addr)
	return ""
}

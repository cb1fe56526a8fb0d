package handler

import (
	"time"

	"github.com/Baaaki/yamdb/internal/models"
)

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}

type TaxonomyResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func newTaxonomyResponse(t models.Taxonomy) TaxonomyResponse {
	return TaxonomyResponse{Name: t.Name, Slug: t.Slug}
}

type TitleResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Year        int                `json:"year"`
	Rating      *float64           `json:"rating"`
	Description string             `json:"description"`
	Genre       []TaxonomyResponse `json:"genre"`
	Category    *TaxonomyResponse  `json:"category"`
}

func newTitleResponse(t *models.Title) TitleResponse {
	out := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]TaxonomyResponse, 0, len(t.Genres)),
	}
	for _, g := range t.Genres {
		out.Genre = append(out.Genre, newTaxonomyResponse(g.Taxonomy))
	}
	if t.Category != nil {
		category := newTaxonomyResponse(t.Category.Taxonomy)
		out.Category = &category
	}
	return out
}

type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   *int      `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func newReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  authorName(r.Author),
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func newCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  authorName(c.Author),
		PubDate: c.PubDate,
	}
}

func authorName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

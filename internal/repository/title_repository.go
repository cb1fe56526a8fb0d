package repository

import (
	"errors"
	"sort"

	"github.com/Baaaki/yamdb/internal/models"

	"gorm.io/gorm"
)

// AVG skips NULL scores and yields NULL for a title without scored reviews.
const titleWithRating = "titles.*, " +
	"(SELECT CAST(AVG(reviews.score) AS DOUBLE PRECISION) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// TitleFilter narrows a title listing. Zero values mean "any".
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     *int
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

func (r *TitleRepository) filtered(f TitleFilter) *gorm.DB {
	q := r.db.Model(&models.Title{})
	if f.Category != "" {
		q = q.Where("titles.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", f.Category))
	}
	if f.Genre != "" {
		q = q.Where("titles.id IN (?)",
			r.db.Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", f.Genre))
	}
	if f.Name != "" {
		q = q.Where(`LOWER(titles.name) LIKE ? ESCAPE '\'`, containsPattern(f.Name))
	}
	if f.Year != nil {
		q = q.Where("titles.year = ?", *f.Year)
	}
	return q
}

// ListTitles returns one page of matching titles ordered by name, with rating,
// category and genres populated.
func (r *TitleRepository) ListTitles(f TitleFilter, page Page) ([]models.Title, int64, error) {
	var total int64
	if err := r.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []models.Title
	err := r.filtered(f).
		Select(titleWithRating).
		Preload("Category").
		Order("titles.name, titles.id").
		Scopes(page.Scope).
		Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachGenres(titles); err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// GetTitleByID returns nil, nil when the title does not exist.
func (r *TitleRepository) GetTitleByID(id uint) (*models.Title, error) {
	var title models.Title
	err := r.db.Model(&models.Title{}).
		Select(titleWithRating).
		Preload("Category").
		Where("titles.id = ?", id).
		First(&title).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	titles := []models.Title{title}
	if err := r.attachGenres(titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

func (r *TitleRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Title{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *TitleRepository) attachGenres(titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}

	ids := make([]uint, len(titles))
	for i := range titles {
		ids[i] = titles[i].ID
	}

	var links []models.TitleGenre
	if err := r.db.Preload("Genre").Where("title_id IN ?", ids).Find(&links).Error; err != nil {
		return err
	}

	byTitle := make(map[uint][]models.Genre, len(titles))
	for _, link := range links {
		if link.Genre != nil {
			byTitle[link.TitleID] = append(byTitle[link.TitleID], *link.Genre)
		}
	}

	for i := range titles {
		genres := byTitle[titles[i].ID]
		sort.Slice(genres, func(a, b int) bool { return genres[a].Name < genres[b].Name })
		if genres == nil {
			genres = []models.Genre{}
		}
		titles[i].Genres = genres
	}
	return nil
}

// CreateTitle inserts the title and its genre links atomically.
func (r *TitleRepository) CreateTitle(title *models.Title, genreIDs []uint) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(title).Error; err != nil {
			return err
		}
		return linkGenres(tx, title.ID, genreIDs)
	}))
}

// UpdateTitle writes fields and, when genreIDs is non-nil, replaces the genre links.
func (r *TitleRepository) UpdateTitle(id uint, fields map[string]any, genreIDs []uint) error {
	return translate(r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if len(fields) > 0 {
			if err := tx.Model(&models.Title{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		if genreIDs == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return err
		}
		return linkGenres(tx, id, genreIDs)
	}))
}

func linkGenres(tx *gorm.DB, titleID uint, genreIDs []uint) error {
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]models.TitleGenre, 0, len(genreIDs))
	seen := make(map[uint]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		links = append(links, models.TitleGenre{TitleID: titleID, GenreID: gid})
	}
	return tx.Create(&links).Error
}

// DeleteTitle removes the title; reviews, their comments and genre links cascade.
func (r *TitleRepository) DeleteTitle(id uint) error {
	res := r.db.Where("id = ?", id).Delete(&models.Title{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"

	"gorm.io/gorm"
)

// Taxon is a slug-addressed catalog classifier.
type Taxon interface {
	models.Category | models.Genre
	Entry() models.Taxonomy
}

// TaxonomyRepository stores categories or genres.
type TaxonomyRepository[T Taxon] struct {
	db *gorm.DB
}

func NewTaxonomyRepository[T Taxon](db *gorm.DB) *TaxonomyRepository[T] {
	return &TaxonomyRepository[T]{db: db}
}

func (r *TaxonomyRepository[T]) Create(item *T) error {
	return translate(r.db.Create(item).Error)
}

// GetBySlug returns nil, nil when the slug is unknown.
func (r *TaxonomyRepository[T]) GetBySlug(slug string) (*T, error) {
	var item T
	err := r.db.Where("slug = ?", slug).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *TaxonomyRepository[T]) GetBySlugs(slugs []string) ([]T, error) {
	var items []T
	if len(slugs) == 0 {
		return items, nil
	}
	err := r.db.Where("slug IN ?", slugs).Order("name").Find(&items).Error
	return items, err
}

func (r *TaxonomyRepository[T]) List(search string, page Page) ([]T, int64, error) {
	query := func() *gorm.DB {
		q := r.db.Model(new(T))
		if search != "" {
			q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(search))
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []T
	err := query().Order("name, id").Scopes(page.Scope).Find(&items).Error
	return items, total, err
}

func (r *TaxonomyRepository[T]) Rename(slug, name string) (*T, error) {
	res := r.db.Model(new(T)).Where("slug = ?", slug).Update("name", name)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetBySlug(slug)
}

func (r *TaxonomyRepository[T]) DeleteBySlug(slug string) error {
	res := r.db.Where("slug = ?", slug).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

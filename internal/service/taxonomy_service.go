package service

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/rbac"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validator"
	"github.com/Baaaki/yamdb/pkg/logger"

	"go.uber.org/zap"
)

type TaxonomyInput struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

type RenameInput struct {
	Name string `json:"name" validate:"required,max=256"`
}

// TaxonomyService manages categories or genres; both share one shape and one policy.
type TaxonomyService[T repository.Taxon] struct {
	repo     *repository.TaxonomyRepository[T]
	resource rbac.Resource
	label    string
	build    func(models.Taxonomy) T
	validate *validator.Validator
}

func NewCategoryService(repo *repository.TaxonomyRepository[models.Category], validate *validator.Validator) *TaxonomyService[models.Category] {
	return &TaxonomyService[models.Category]{
		repo:     repo,
		resource: rbac.ResourceCategory,
		label:    "Category",
		build:    models.NewCategory,
		validate: validate,
	}
}

func NewGenreService(repo *repository.TaxonomyRepository[models.Genre], validate *validator.Validator) *TaxonomyService[models.Genre] {
	return &TaxonomyService[models.Genre]{
		repo:     repo,
		resource: rbac.ResourceGenre,
		label:    "Genre",
		build:    models.NewGenre,
		validate: validate,
	}
}

func (s *TaxonomyService[T]) List(search string, page repository.Page) ([]T, int64, error) {
	return s.repo.List(search, page)
}

func (s *TaxonomyService[T]) Create(actor *models.User, in TaxonomyInput) (*T, error) {
	if err := rbac.Check(actor, s.resource, rbac.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	item := s.build(models.Taxonomy{Name: in.Name, Slug: in.Slug})
	if err := s.repo.Create(&item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("slug", s.label+" with this slug already exists.")
		}
		return nil, err
	}

	logger.Log.Info("Catalog entry created",
		zap.String("kind", string(s.resource)),
		zap.String("slug", in.Slug),
	)
	return &item, nil
}

func (s *TaxonomyService[T]) Rename(actor *models.User, slug string, in RenameInput) (*T, error) {
	if err := rbac.Check(actor, s.resource, rbac.ActionUpdate, nil); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	item, err := s.repo.Rename(slug, in.Name)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && item == nil) {
		return nil, apperrors.NotFound(s.label)
	}
	return item, err
}

// Delete removes the entry. Titles lose their category; genre links are dropped.
func (s *TaxonomyService[T]) Delete(actor *models.User, slug string) error {
	if err := rbac.Check(actor, s.resource, rbac.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.repo.DeleteBySlug(slug); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(s.label)
		}
		return err
	}

	logger.Log.Info("Catalog entry deleted",
		zap.String("kind", string(s.resource)),
		zap.String("slug", slug),
	)
	return nil
}

package service

import (
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/rbac"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validator"
	"github.com/Baaaki/yamdb/pkg/logger"

	"go.uber.org/zap"
)

type TitleInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required,min=1,notfuture"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" validate:"required,dive,slug"`
	Category    string   `json:"category" validate:"omitempty,slug"`
}

type TitlePatch struct {
	Name        *string  `json:"name" validate:"omitnil,required,max=256"`
	Year        *int     `json:"year" validate:"omitnil,min=1,notfuture"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre" validate:"omitnil,dive,slug"`

	// null or "" detaches the category.
	Category validator.Nullable[string] `json:"category" validate:"omitempty,slug"`
}

type TitleService struct {
	titleRepo    *repository.TitleRepository
	categoryRepo *repository.TaxonomyRepository[models.Category]
	genreRepo    *repository.TaxonomyRepository[models.Genre]
	validate     *validator.Validator
}

func NewTitleService(
	titleRepo *repository.TitleRepository,
	categoryRepo *repository.TaxonomyRepository[models.Category],
	genreRepo *repository.TaxonomyRepository[models.Genre],
	validate *validator.Validator,
) *TitleService {
	return &TitleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		validate:     validate,
	}
}

func (s *TitleService) List(filter repository.TitleFilter, page repository.Page) ([]models.Title, int64, error) {
	return s.titleRepo.ListTitles(filter, page)
}

func (s *TitleService) Get(id uint) (*models.Title, error) {
	title, err := s.titleRepo.GetTitleByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, apperrors.NotFound("Title")
	}
	return title, nil
}

func (s *TitleService) Create(actor *models.User, in TitleInput) (*models.Title, error) {
	if err := rbac.Check(actor, rbac.ResourceTitle, rbac.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	var categoryID *uint
	if in.Category != "" {
		id, err := s.resolveCategory(in.Category)
		if err != nil {
			return nil, err
		}
		categoryID = &id
	}
	genreIDs, err := s.resolveGenres(in.Genre)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
		CategoryID:  categoryID,
	}
	if err := s.titleRepo.CreateTitle(title, genreIDs); err != nil {
		return nil, s.writeError(err)
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
	)
	return s.Get(title.ID)
}

// Update applies a partial change. A genre list, when present, replaces the current set.
func (s *TitleService) Update(actor *models.User, id uint, patch TitlePatch) (*models.Title, error) {
	if err := rbac.Check(actor, rbac.ResourceTitle, rbac.ActionUpdate, nil); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(patch); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Year != nil {
		fields["year"] = *patch.Year
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	switch {
	case !patch.Category.Set:
	case patch.Category.IsNull() || *patch.Category.Value == "":
		fields["category_id"] = nil
	default:
		categoryID, err := s.resolveCategory(*patch.Category.Value)
		if err != nil {
			return nil, err
		}
		fields["category_id"] = categoryID
	}

	var genreIDs []uint
	if patch.Genre != nil {
		ids, err := s.resolveGenres(patch.Genre)
		if err != nil {
			return nil, err
		}
		genreIDs = append([]uint{}, ids...)
	}

	if err := s.titleRepo.UpdateTitle(id, fields, genreIDs); err != nil {
		return nil, s.writeError(err)
	}
	return s.Get(id)
}

// Delete removes the title together with its reviews and their comments.
func (s *TitleService) Delete(actor *models.User, id uint) error {
	if err := rbac.Check(actor, rbac.ResourceTitle, rbac.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.titleRepo.DeleteTitle(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Title")
		}
		return err
	}

	logger.Log.Info("Title deleted", zap.Uint("title_id", id))
	return nil
}

func (s *TitleService) resolveCategory(slug string) (uint, error) {
	category, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, apperrors.NotFoundField("category", fmt.Sprintf("Category with slug %q does not exist.", slug))
	}
	return category.ID, nil
}

func (s *TitleService) resolveGenres(slugs []string) ([]uint, error) {
	genres, err := s.genreRepo.GetBySlugs(slugs)
	if err != nil {
		return nil, err
	}

	known := make(map[string]uint, len(genres))
	for _, g := range genres {
		known[g.Slug] = g.ID
	}

	ids := make([]uint, 0, len(slugs))
	for _, slug := range slugs {
		id, ok := known[slug]
		if !ok {
			return nil, apperrors.NotFoundField("genre", fmt.Sprintf("Genre with slug %q does not exist.", slug))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *TitleService) writeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Title")
	case errors.Is(err, repository.ErrReferenceNotFound):
		return apperrors.NotFoundField("detail", "A referenced category or genre no longer exists.")
	}
	return err
}

package service

import (
	"testing"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/internal/validator"

	"github.com/stretchr/testify/suite"
)

type TitleServiceTestSuite struct {
	suite.Suite
	testDB     *testutil.TestDatabase
	titles     *TitleService
	categories *TaxonomyService[models.Category]
	genres     *TaxonomyService[models.Genre]

	admin  *models.User
	user   *models.User
	movies *models.Category
	books  *models.Category
	drama  *models.Genre
	scifi  *models.Genre
}

func (s *TitleServiceTestSuite) SetupSuite() {
	s.testDB = testutil.SetupTestDatabase(s.T())

	db := s.testDB.DB
	v := validator.New()
	categoryRepo := repository.NewTaxonomyRepository[models.Category](db)
	genreRepo := repository.NewTaxonomyRepository[models.Genre](db)
	s.titles = NewTitleService(repository.NewTitleRepository(db), categoryRepo, genreRepo, v)
	s.categories = NewCategoryService(categoryRepo, v)
	s.genres = NewGenreService(genreRepo, v)
}

func (s *TitleServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *TitleServiceTestSuite) SetupTest() {
	db := s.testDB.DB
	testutil.CleanDatabase(s.T(), db)

	s.admin = testutil.CreateUser(s.T(), db, "admin", models.RoleAdmin)
	s.user = testutil.CreateUser(s.T(), db, "user", models.RoleUser)
	s.movies = testutil.CreateCategory(s.T(), db, "Movies", "movies")
	s.books = testutil.CreateCategory(s.T(), db, "Books", "books")
	s.drama = testutil.CreateGenre(s.T(), db, "Drama", "drama")
	s.scifi = testutil.CreateGenre(s.T(), db, "Sci-Fi", "sci-fi")
}

func (s *TitleServiceTestSuite) count(model any) int64 {
	var n int64
	s.Require().NoError(s.testDB.DB.Model(model).Count(&n).Error)
	return n
}

func (s *TitleServiceTestSuite) TestCreate_Success() {
	title, err := s.titles.Create(s.admin, TitleInput{
		Name:     "Dune",
		Year:     2021,
		Genre:    []string{"sci-fi", "drama", "drama"},
		Category: "movies",
	})

	s.Require().NoError(err)
	s.Equal("Dune", title.Name)
	s.Require().NotNil(title.Category)
	s.Equal("movies", title.Category.Slug)
	s.Require().Len(title.Genres, 2)
	s.Equal("drama", title.Genres[0].Slug)
	s.Equal("sci-fi", title.Genres[1].Slug)
	s.Nil(title.Rating)
}

func (s *TitleServiceTestSuite) TestCreate_Rejections() {
	tests := []struct {
		name  string
		actor *models.User
		in    TitleInput
		want  error
		field string
	}{
		{"negative year", s.admin, TitleInput{Name: "X", Year: -44, Genre: []string{}, Category: "movies"}, apperrors.ErrValidation, "year"},
		{"bad category slug", s.admin, TitleInput{Name: "X", Year: 2000, Genre: []string{}, Category: "no way"}, apperrors.ErrValidation, "category"},
		{"future year", s.admin, TitleInput{Name: "X", Year: 2100, Genre: []string{}, Category: "movies"}, apperrors.ErrValidation, "year"},
		{"unknown category", s.admin, TitleInput{Name: "X", Year: 2000, Genre: []string{}, Category: "scifi"}, apperrors.ErrNotFound, "category"},
		{"unknown genre", s.admin, TitleInput{Name: "X", Year: 2000, Genre: []string{"drama", "nope"}, Category: "movies"}, apperrors.ErrNotFound, "genre"},
		{"missing name", s.admin, TitleInput{Year: 2000, Genre: []string{}, Category: "movies"}, apperrors.ErrValidation, "name"},
		{"not an admin", s.user, TitleInput{Name: "X", Year: 2000, Genre: []string{}, Category: "movies"}, apperrors.ErrForbidden, ""},
		{"anonymous", nil, TitleInput{Name: "X", Year: 2000, Genre: []string{}, Category: "movies"}, apperrors.ErrUnauthenticated, ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.titles.Create(tt.actor, tt.in)

			s.ErrorIs(err, tt.want)
			if tt.field != "" {
				var appErr *apperrors.Error
				s.Require().ErrorAs(err, &appErr)
				s.Contains(appErr.Fields, tt.field)
			}
		})
	}
	s.Equal(int64(0), s.count(&models.Title{}))
}

func (s *TitleServiceTestSuite) TestRating() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Dune", 2021, s.movies)

	got, err := s.titles.Get(title.ID)
	s.Require().NoError(err)
	s.Nil(got.Rating, "no reviews means no rating, not zero")

	bob := testutil.CreateUser(s.T(), s.testDB.DB, "bob", models.RoleUser)
	carol := testutil.CreateUser(s.T(), s.testDB.DB, "carol", models.RoleUser)
	testutil.CreateReview(s.T(), s.testDB.DB, title, s.user, testutil.IntPtr(7))
	testutil.CreateReview(s.T(), s.testDB.DB, title, bob, testutil.IntPtr(8))
	testutil.CreateReview(s.T(), s.testDB.DB, title, carol, nil)

	got, err = s.titles.Get(title.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.Rating)
	s.InDelta(7.5, *got.Rating, 1e-9, "unscored reviews do not count")
}

func (s *TitleServiceTestSuite) TestUpdate() {
	title, err := s.titles.Create(s.admin, TitleInput{Name: "Dune", Year: 2021, Genre: []string{"sci-fi"}, Category: "movies"})
	s.Require().NoError(err)

	updated, err := s.titles.Update(s.admin, title.ID, TitlePatch{Description: testutil.StrPtr("Spice")})
	s.Require().NoError(err)
	s.Equal("Spice", updated.Description)
	s.Len(updated.Genres, 1, "genres untouched when absent from the patch")

	updated, err = s.titles.Update(s.admin, title.ID, TitlePatch{Genre: []string{"drama"}, Category: validator.Some("books")})
	s.Require().NoError(err)
	s.Require().Len(updated.Genres, 1)
	s.Equal("drama", updated.Genres[0].Slug)
	s.Equal("books", updated.Category.Slug)

	_, err = s.titles.Update(s.admin, title.ID, TitlePatch{Year: testutil.IntPtr(2100)})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.titles.Update(s.admin, title.ID, TitlePatch{Year: testutil.IntPtr(0)})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.titles.Update(s.user, title.ID, TitlePatch{Name: testutil.StrPtr("Mine")})
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.titles.Update(s.admin, title.ID+100, TitlePatch{Name: testutil.StrPtr("Gone")})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *TitleServiceTestSuite) TestCreate_WithoutCategory() {
	title, err := s.titles.Create(s.admin, TitleInput{Name: "Dune", Year: 2021, Genre: []string{"sci-fi"}})

	s.Require().NoError(err)
	s.Nil(title.Category)
	s.Nil(title.CategoryID)
}

func (s *TitleServiceTestSuite) TestUpdate_Category() {
	title, err := s.titles.Create(s.admin, TitleInput{Name: "Dune", Year: 2021, Genre: []string{}, Category: "movies"})
	s.Require().NoError(err)

	updated, err := s.titles.Update(s.admin, title.ID, TitlePatch{Name: testutil.StrPtr("Dune: Part One")})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Category, "absent category is left alone")
	s.Equal("movies", updated.Category.Slug)

	_, err = s.titles.Update(s.admin, title.ID, TitlePatch{Category: validator.Some("not a slug")})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.titles.Update(s.admin, title.ID, TitlePatch{Category: validator.Some("nope")})
	s.ErrorIs(err, apperrors.ErrNotFound)

	updated, err = s.titles.Update(s.admin, title.ID, TitlePatch{Category: validator.Null[string]()})
	s.Require().NoError(err)
	s.Nil(updated.Category)
	s.Nil(updated.CategoryID)

	updated, err = s.titles.Update(s.admin, title.ID, TitlePatch{Category: validator.Some("books")})
	s.Require().NoError(err)
	s.Equal("books", updated.Category.Slug)

	updated, err = s.titles.Update(s.admin, title.ID, TitlePatch{Category: validator.Some("")})
	s.Require().NoError(err)
	s.Nil(updated.Category)
}

func (s *TitleServiceTestSuite) TestDelete_CascadesReviewsAndComments() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Dune", 2021, s.movies, s.drama)
	review := testutil.CreateReview(s.T(), s.testDB.DB, title, s.user, testutil.IntPtr(9))
	testutil.CreateComment(s.T(), s.testDB.DB, review, s.admin)

	s.ErrorIs(s.titles.Delete(s.user, title.ID), apperrors.ErrForbidden)
	s.Require().NoError(s.titles.Delete(s.admin, title.ID))

	s.Equal(int64(0), s.count(&models.Review{}))
	s.Equal(int64(0), s.count(&models.Comment{}))
	s.Equal(int64(0), s.count(&models.TitleGenre{}))

	_, err := s.titles.Get(title.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.ErrorIs(s.titles.Delete(s.admin, title.ID), apperrors.ErrNotFound)
}

func (s *TitleServiceTestSuite) TestList_Filters() {
	db := s.testDB.DB
	testutil.CreateTitle(s.T(), db, "Dune", 2021, s.movies, s.scifi)
	testutil.CreateTitle(s.T(), db, "Dune Messiah", 1969, s.books, s.scifi)
	testutil.CreateTitle(s.T(), db, "Amadeus", 1984, s.movies, s.drama)

	names := func(f repository.TitleFilter) []string {
		titles, total, err := s.titles.List(f, repository.Page{Number: 1, Size: 10})
		s.Require().NoError(err)
		s.Equal(int64(len(titles)), total)
		out := make([]string, len(titles))
		for i, t := range titles {
			out[i] = t.Name
		}
		return out
	}

	s.Equal([]string{"Amadeus", "Dune", "Dune Messiah"}, names(repository.TitleFilter{}))
	s.Equal([]string{"Amadeus", "Dune"}, names(repository.TitleFilter{Category: "movies"}))
	s.Equal([]string{"Dune", "Dune Messiah"}, names(repository.TitleFilter{Genre: "sci-fi"}))
	s.Equal([]string{"Dune", "Dune Messiah"}, names(repository.TitleFilter{Name: "dUNe"}))
	s.Equal([]string{"Dune Messiah"}, names(repository.TitleFilter{Year: testutil.IntPtr(1969)}))
	s.Equal([]string{"Dune"}, names(repository.TitleFilter{Category: "movies", Genre: "sci-fi"}))
	s.Empty(names(repository.TitleFilter{Category: "nope"}))
}

func (s *TitleServiceTestSuite) TestList_Pagination() {
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		testutil.CreateTitle(s.T(), s.testDB.DB, name, 2000, s.movies)
	}

	titles, total, err := s.titles.List(repository.TitleFilter{}, repository.Page{Number: 2, Size: 2})
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Require().Len(titles, 2)
	s.Equal("C", titles[0].Name)
	s.Equal("D", titles[1].Name)
	s.NotNil(titles[0].Genres, "genres serialize as an empty list")
}

func (s *TitleServiceTestSuite) TestCategoryDelete_KeepsTitles() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Dune", 2021, s.movies)

	s.ErrorIs(s.categories.Delete(s.user, "movies"), apperrors.ErrForbidden)
	s.Require().NoError(s.categories.Delete(s.admin, "movies"))

	got, err := s.titles.Get(title.ID)
	s.Require().NoError(err)
	s.Nil(got.Category)
	s.Nil(got.CategoryID)
}

func (s *TitleServiceTestSuite) TestGenreDelete_UnlinksTitles() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Dune", 2021, s.movies, s.drama, s.scifi)

	s.Require().NoError(s.genres.Delete(s.admin, "drama"))

	got, err := s.titles.Get(title.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Genres, 1)
	s.Equal("sci-fi", got.Genres[0].Slug)
}

func (s *TitleServiceTestSuite) TestTaxonomy_CreateListRename() {
	_, err := s.genres.Create(s.admin, TaxonomyInput{Name: "Horror", Slug: "horror"})
	s.Require().NoError(err)

	_, err = s.genres.Create(s.admin, TaxonomyInput{Name: "Horror again", Slug: "horror"})
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.genres.Create(s.admin, TaxonomyInput{Name: "Bad", Slug: "bad slug"})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.genres.Create(s.user, TaxonomyInput{Name: "Noir", Slug: "noir"})
	s.ErrorIs(err, apperrors.ErrForbidden)

	found, total, err := s.genres.List("HOR", repository.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("horror", found[0].Slug)

	renamed, err := s.genres.Rename(s.admin, "horror", RenameInput{Name: "Scary"})
	s.Require().NoError(err)
	s.Equal("Scary", renamed.Name)
	s.Equal("horror", renamed.Slug)

	_, err = s.genres.Rename(s.admin, "missing", RenameInput{Name: "X"})
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.ErrorIs(s.genres.Delete(s.admin, "missing"), apperrors.ErrNotFound)
}

func TestTitleServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TitleServiceTestSuite))
}

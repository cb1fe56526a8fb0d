package validator

import (
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupPayload struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username,notreserved=user"`
}

type titlePayload struct {
	Name  string   `json:"name" validate:"required,max=256"`
	Year  int      `json:"year" validate:"notfuture"`
	Score *int     `json:"score" validate:"omitempty,min=1,max=10"`
	Genre []string `json:"genre" validate:"dive,slug"`
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	return appErr.Fields
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(signupPayload{Email: "a@x.io", Username: "alice.b+1"}))
}

func TestValidate_ReservedUsername(t *testing.T) {
	v := New()
	fields := fieldsOf(t, v.Validate(signupPayload{Email: "a@x.io", Username: "me"}))
	assert.Equal(t, []string{`"me" is a reserved value.`}, fields["username"])
}

func TestValidate_MissingAndMalformed(t *testing.T) {
	v := New()
	fields := fieldsOf(t, v.Validate(signupPayload{Email: "nope", Username: "bad name!"}))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "username")

	fields = fieldsOf(t, v.Validate(signupPayload{}))
	assert.Equal(t, []string{"This field is required."}, fields["email"])
}

func TestValidate_NotFutureUsesClock(t *testing.T) {
	v := NewWithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) })

	assert.NoError(t, v.Validate(titlePayload{Name: "Dune", Year: 2024}))

	fields := fieldsOf(t, v.Validate(titlePayload{Name: "Dune", Year: 2025}))
	assert.Equal(t, []string{"Must not be later than 2024."}, fields["year"])
}

func TestValidate_ScoreBoundsAndSlugs(t *testing.T) {
	v := New()
	zero, eleven, ten := 0, 11, 10

	assert.NoError(t, v.Validate(titlePayload{Name: "x", Year: 2000, Score: &ten}))
	assert.NoError(t, v.Validate(titlePayload{Name: "x", Year: 2000, Score: nil}))
	assert.Contains(t, fieldsOf(t, v.Validate(titlePayload{Name: "x", Year: 2000, Score: &zero})), "score")
	assert.Contains(t, fieldsOf(t, v.Validate(titlePayload{Name: "x", Year: 2000, Score: &eleven})), "score")

	fields := fieldsOf(t, v.Validate(titlePayload{Name: "x", Year: 2000, Genre: []string{"drama", "sci fi"}}))
	assert.Contains(t, fields, "genre[1]")
}

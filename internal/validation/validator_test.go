package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required,min=5,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
}

func TestStruct_Valid(t *testing.T) {
	err := Default().Struct(signup{Name: "Alice User", Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := New().Struct(signup{Name: "Al", Email: "nope", Password: ""})
	require.Error(t, err)

	var vErr *Error
	require.True(t, errors.As(err, &vErr))

	got := map[string]string{}
	for _, f := range vErr.Fields {
		got[f.Field] = f.Rule
		require.NotEmpty(t, f.Message)
	}

	require.Equal(t, map[string]string{
		"name":     "min",
		"email":    "email",
		"password": "required",
	}, got)
}

func TestError_MessageIsFirstViolation(t *testing.T) {
	err := New().Struct(signup{Name: "Al", Email: "alice@x.com", Password: "secret1"})

	var vErr *Error
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, `"name" must be at least 5 characters long`, vErr.Error())
}

func TestStruct_NonStructIsNotAViolation(t *testing.T) {
	err := New().Struct("just a string")
	require.Error(t, err)

	var vErr *Error
	require.False(t, errors.As(err, &vErr))
}

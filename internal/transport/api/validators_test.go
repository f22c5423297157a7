package api

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("slug", validateSlug))

	cases := []struct {
		value string
		valid bool
	}{
		{"chess", true},
		{"Chess", true},
		{"speed_chess-2", true},
		{"PRO", true},
		{"", false},
		{"-chess", false},
		{"Chess Game!", false},
		{"../x", false},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			err := v.Var(tc.value, "slug")
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

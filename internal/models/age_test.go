package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAge_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    Age
		wantErr bool
	}{
		{`34`, 34, false},
		{`"34"`, 34, false},
		{`" 52 "`, 52, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
		{`34.5`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var a Age
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestUser_StringAgeIsStillRangeChecked(t *testing.T) {
	var u User
	raw := `{"id":"1767225600000","firstName":"Amira","surname":"Ben Salah","username":"amira","age":"12","emergencyContact":"+216 20 000 000","speedUnit":"km/h","createdAt":"2026-01-01T00:00:00.000Z"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, Age(12), u.Age)

	err := validator.New().Struct(u)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Age", verrs[0].Field())
	assert.Equal(t, "min", verrs[0].Tag())
}

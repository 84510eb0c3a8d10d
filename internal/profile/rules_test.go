// internal/profile/rules_test.go
package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/models"
)

func TestApplyField(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		value       interface{}
		expectError bool
		validate    func(t *testing.T, p *models.Profile)
	}{
		{
			name:  "valid age",
			field: FieldAge,
			value: float64(25),
			validate: func(t *testing.T, p *models.Profile) {
				require.NotNil(t, p.Age)
				assert.Equal(t, 25, *p.Age)
			},
		},
		{
			name:        "negative age rejected",
			field:       FieldAge,
			value:       float64(-1),
			expectError: true,
		},
		{
			name:        "age above upper bound rejected",
			field:       FieldAge,
			value:       float64(200),
			expectError: true,
		},
		{
			name:        "fractional age rejected",
			field:       FieldAge,
			value:       25.5,
			expectError: true,
		},
		{
			name:  "valid location",
			field: FieldLocation,
			value: "Mumbai",
			validate: func(t *testing.T, p *models.Profile) {
				assert.Equal(t, "Mumbai", p.Location)
			},
		},
		{
			name:        "empty location rejected",
			field:       FieldLocation,
			value:       "   ",
			expectError: true,
		},
		{
			name:  "valid income",
			field: FieldMonthlyIncome,
			value: float64(8000),
			validate: func(t *testing.T, p *models.Profile) {
				require.NotNil(t, p.MonthlyIncome)
				assert.Equal(t, float64(8000), *p.MonthlyIncome)
			},
		},
		{
			name:        "negative income rejected",
			field:       FieldMonthlyIncome,
			value:       float64(-5),
			expectError: true,
		},
		{
			name:  "employment status normalized",
			field: FieldEmploymentStatus,
			value: "Self-Employed",
			validate: func(t *testing.T, p *models.Profile) {
				assert.Equal(t, models.EmploymentSelfEmployed, p.EmploymentStatus)
			},
		},
		{
			name:        "employment status outside closed set rejected",
			field:       FieldEmploymentStatus,
			value:       "retired",
			expectError: true,
		},
		{
			name:  "language normalized",
			field: FieldLanguage,
			value: "Hindi",
			validate: func(t *testing.T, p *models.Profile) {
				assert.Equal(t, models.LanguageHindi, p.Language)
			},
		},
		{
			name:        "unsupported language rejected",
			field:       FieldLanguage,
			value:       "tamil",
			expectError: true,
		},
		{
			name:  "skills from json list",
			field: FieldSkills,
			value: []interface{}{"Plumbing", "wiring"},
			validate: func(t *testing.T, p *models.Profile) {
				assert.Equal(t, []string{"plumbing", "wiring"}, p.Skills)
			},
		},
		{
			name:        "skills with empty entry rejected",
			field:       FieldSkills,
			value:       []interface{}{"plumbing", ""},
			expectError: true,
		},
		{
			name:        "skills with non-string entry rejected",
			field:       FieldSkills,
			value:       []interface{}{"plumbing", 7.0},
			expectError: true,
		},
		{
			name:        "unknown field rejected",
			field:       "shoeSize",
			value:       float64(42),
			expectError: true,
		},
		{
			name:        "wrong type rejected",
			field:       FieldAge,
			value:       "twenty",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Profile{CitizenID: "citizen-1"}
			err := ApplyField(p, tt.field, tt.value)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

				stdErr := &apperrors.StandardError{}
				require.ErrorAs(t, err, &stdErr)
				assert.Equal(t, tt.field, stdErr.Metadata["field"])
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestValidateChecksEveryRule(t *testing.T) {
	age := 30
	income := 9500.0
	p := &models.Profile{
		CitizenID:        "citizen-1",
		Age:              &age,
		Location:         "Pune",
		EmploymentStatus: models.EmploymentUnemployed,
		MonthlyIncome:    &income,
		Language:         models.LanguageEnglish,
	}
	require.NoError(t, Validate(p))

	badAge := 151
	p.Age = &badAge
	err := Validate(p)
	require.Error(t, err)
	stdErr := &apperrors.StandardError{}
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, FieldAge, stdErr.Metadata["field"])
}

func TestFieldsIsStable(t *testing.T) {
	first := Fields()
	second := Fields()
	assert.Equal(t, first, second)
	assert.Contains(t, first, FieldAge)
	assert.Contains(t, first, FieldLanguage)
}

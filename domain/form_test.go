package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() map[string]string {
	return map[string]string{
		"name":            "Jane Doe",
		"email":           "jane@example.com",
		"phone":           "+1 555 0100",
		"age":             "25",
		"qualification":   "B.Sc",
		"graduation_year": "2020",
		"location":        "Bhubaneswar",
	}
}

func formFrom(fields map[string]string) ApplicationForm {
	return NewApplicationForm(func(key string) string { return fields[key] })
}

func TestApplicationForm_Valid(t *testing.T) {
	app, err := formFrom(validFields()).Validate()
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", app.Name)
	require.NotNil(t, app.Email)
	assert.Equal(t, "jane@example.com", *app.Email)
	assert.Equal(t, 25, app.Age)
	assert.Equal(t, 2020, app.GraduationYear)
	assert.Empty(t, app.VideoFilename)
}

func TestApplicationForm_EmptyEmailIsNil(t *testing.T) {
	fields := validFields()
	fields["email"] = "   "

	app, err := formFrom(fields).Validate()
	require.NoError(t, err)
	assert.Nil(t, app.Email)
}

func TestApplicationForm_RequiredFields(t *testing.T) {
	for _, key := range []string{"name", "phone", "age", "qualification", "graduation_year", "location"} {
		t.Run(key, func(t *testing.T) {
			fields := validFields()
			delete(fields, key)

			_, err := formFrom(fields).Validate()
			assert.Equal(t, ErrRequiredFields, err)
		})
	}

	t.Run("zero age", func(t *testing.T) {
		fields := validFields()
		fields["age"] = "0"
		_, err := formFrom(fields).Validate()
		assert.Equal(t, ErrRequiredFields, err)
	})

	t.Run("non numeric graduation year", func(t *testing.T) {
		fields := validFields()
		fields["graduation_year"] = "soon"
		_, err := formFrom(fields).Validate()
		assert.Equal(t, ErrRequiredFields, err)
	})

	t.Run("required check runs before email check", func(t *testing.T) {
		fields := validFields()
		fields["email"] = "not-an-email"
		fields["name"] = ""
		_, err := formFrom(fields).Validate()
		assert.Equal(t, ErrRequiredFields, err)
	})
}

func TestApplicationForm_Email(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"jane@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"not-an-email", false},
		{"jane@example", false},
		{"jane@example.c", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			fields := validFields()
			fields["email"] = tt.email
			_, err := formFrom(fields).Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, ErrInvalidEmail, err)
			}
		})
	}
}

func TestApplicationForm_AgeBounds(t *testing.T) {
	tests := []struct {
		age string
		ok  bool
	}{
		{"17", false},
		{"18", true},
		{"100", true},
		{"101", false},
		{"-5", false},
		{"twenty", false},
		{" 42 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.age, func(t *testing.T) {
			fields := validFields()
			fields["age"] = tt.age
			_, err := formFrom(fields).Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, ErrInvalidAge, err)
			}
		})
	}
}

func TestApplicationForm_StoresSanitizedValues(t *testing.T) {
	fields := validFields()
	fields["name"] = "<script>&"

	app, err := formFrom(fields).Validate()
	require.NoError(t, err)
	assert.Equal(t, "&lt;script&gt;&amp;", app.Name)
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrFileTooLarge))
	assert.False(t, IsValidation(assert.AnError))
}

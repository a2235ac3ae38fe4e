package domain

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("applicant_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ApplicationForm holds the sanitized text fields of one submission.
type ApplicationForm struct {
	Name           string `validate:"required"`
	Email          string `validate:"omitempty,applicant_email"`
	Phone          string `validate:"required"`
	Age            string `validate:"required"`
	Qualification  string `validate:"required"`
	GraduationYear int    `validate:"required"`
	Location       string `validate:"required"`
}

// NewApplicationForm reads every field through get and sanitizes it.
// A graduation year that is not a number counts as missing.
func NewApplicationForm(get func(key string) string) ApplicationForm {
	year, err := strconv.Atoi(Sanitize(get("graduation_year")))
	if err != nil {
		year = 0
	}
	return ApplicationForm{
		Name:           Sanitize(get("name")),
		Email:          Sanitize(get("email")),
		Phone:          Sanitize(get("phone")),
		Age:            Sanitize(get("age")),
		Qualification:  Sanitize(get("qualification")),
		GraduationYear: year,
		Location:       Sanitize(get("location")),
	}
}

// Validate checks the form in order: required fields, email, age range.
// The returned Application has no video filename or upload time yet.
func (f ApplicationForm) Validate() (*Application, error) {
	if err := validate.StructExcept(f, "Email"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, ErrRequiredFields
		}
		return nil, err
	}

	age, ageErr := strconv.Atoi(f.Age)
	if ageErr == nil && age == 0 {
		return nil, ErrRequiredFields
	}

	if err := validate.StructPartial(f, "Email"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}

	if ageErr != nil || validate.Var(age, "min=18,max=100") != nil {
		return nil, ErrInvalidAge
	}

	app := &Application{
		Name:           f.Name,
		Phone:          f.Phone,
		Age:            age,
		Qualification:  f.Qualification,
		GraduationYear: f.GraduationYear,
		Location:       f.Location,
	}
	if f.Email != "" {
		email := f.Email
		app.Email = &email
	}
	return app, nil
}

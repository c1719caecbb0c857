package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator with the assembly tags registered:
//
//	vote_option     yes, no, blank or abstention
//	meeting_status  one of the lifecycle statuses
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("vote_option", func(fl validator.FieldLevel) bool {
		return entities.VoteOption(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("meeting_status", func(fl validator.FieldLevel) bool {
		return entities.MeetingStatus(fl.Field().String()).IsValid()
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

package binder

import (
	"github.com/go-playground/validator/v10"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

const (
	shareToken = "share_token"
	profileID  = "profile_id"
)

// shareTokenValidator checks the format of a share link token. Use
// `required` alongside it to reject the empty string.
func shareTokenValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsValidShareToken(value)
}

// profileIDValidator allows the empty string so optional profile IDs can use
// it. Use `required` alongside it where the ID is mandatory.
func profileIDValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsValidProfileID(value)
}

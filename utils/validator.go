package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Accepted enum values are validated with oneof tags at the request
	// structs; phone numbers get a loose E.164-style check here.
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		phone := strings.TrimPrefix(fl.Field().String(), "+")
		if len(phone) < 8 || len(phone) > 15 {
			return false
		}
		for _, r := range phone {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
}

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	// Format validation errors
	var errs []string
	for _, err := range err.(validator.ValidationErrors) {
		field := strings.ToLower(err.Field())
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errs = append(errs, field+" is required")
		case "min":
			errs = append(errs, field+" must be at least "+param)
		case "max":
			errs = append(errs, field+" must be at most "+param)
		case "email":
			errs = append(errs, field+" must be a valid email")
		case "oneof":
			errs = append(errs, field+" must be one of: "+param)
		case "phone":
			errs = append(errs, field+" must be a valid phone number")
		case "gt":
			errs = append(errs, field+" must be greater than "+param)
		default:
			errs = append(errs, field+" is invalid")
		}
	}

	return fmt.Errorf(strings.Join(errs, ", "))
}

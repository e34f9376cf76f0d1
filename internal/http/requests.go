package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32

	// bcrypt rejects inputs longer than this many bytes.
	maxPasswordBytes = 72
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=8,password"`
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,username"`
	Password *string `json:"password" binding:"omitempty,min=8,password"`
}

var registerValidatorsOnce sync.Once

// registerValidators installs the custom tags and json field naming on gin's validator.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", validateUsername)
		_ = v.RegisterValidation("password", validatePassword)
	})
}

// validateUsername checks length after trimming the whitespace that normalisation removes.
func validateUsername(fl validator.FieldLevel) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
	return n >= minUsernameLength && n <= maxUsernameLength
}

// validatePassword caps the encoded length at bcrypt's input limit.
func validatePassword(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= maxPasswordBytes
}

// bindJSON decodes and validates the body, recording a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, validationError(validationMessage(err)))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "password":
		return fmt.Sprintf("%s must be at most %d bytes", field, maxPasswordBytes)
	case "username":
		return fmt.Sprintf("%s must be between %d and %d characters", field, minUsernameLength, maxUsernameLength)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

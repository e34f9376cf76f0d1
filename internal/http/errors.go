package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-accounts/internal/auth"
	"user-accounts/internal/service"
)

// APIError is a failure that carries the status and message shown to the client.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

var (
	errMissingToken       = newAPIError(http.StatusUnauthorized, "Token required")
	errInvalidToken       = newAPIError(http.StatusUnauthorized, "Invalid token")
	errInvalidCredentials = newAPIError(http.StatusUnauthorized, "Invalid credentials")
	errForbidden          = newAPIError(http.StatusForbidden, "Forbidden")
	errUserNotFound       = newAPIError(http.StatusNotFound, "User not found")
	errRouteNotFound      = newAPIError(http.StatusNotFound, "Route not found")
	errUsernameTaken      = newAPIError(http.StatusConflict, "Username already taken")
	errInternal           = newAPIError(http.StatusInternalServerError, "Internal server error")
)

func validationError(message string) *APIError {
	return newAPIError(http.StatusBadRequest, message)
}

// toAPIError maps domain failures onto the client-facing taxonomy. Anything
// unrecognised becomes a 500 without leaking the cause.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, auth.ErrMissingToken):
		return errMissingToken
	case errors.Is(err, auth.ErrInvalidToken):
		return errInvalidToken
	case errors.Is(err, service.ErrInvalidCredentials):
		return errInvalidCredentials
	case errors.Is(err, service.ErrUserNotFound):
		return errUserNotFound
	case errors.Is(err, service.ErrUserAlreadyExists):
		return errUsernameTaken
	default:
		return errInternal
	}
}

// abortWithError records err for the error responder and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// errorResponder is the terminal responder: it renders the last recorded
// error as a single {error} body once the rest of the chain has returned.
func errorResponder(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		apiErr := toAPIError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			}).Error("request failed")
		}
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
	}
}

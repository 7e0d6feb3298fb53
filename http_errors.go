package accounts

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const msgServerError = "An unexpected server error occurred."

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
	Code    string `json:"code,omitempty"`
}

// NewErrorHandler returns the fiber error handler. Unclassified errors are
// logged and rendered as a generic 500.
func NewErrorHandler(cfg Config, logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)

	return func(c *fiber.Ctx, err error) error {
		richErr := toRichError(err)
		status := statusFor(richErr)

		res := ErrorResponse{
			Title:   titleFor(richErr, status),
			Message: richErr.Message,
			Code:    richErr.TextCode,
		}

		if status >= http.StatusInternalServerError {
			res.Message = msgServerError
			res.Code = TextCodeInternal
			details := ""
			if !cfg.IsProduction() {
				details = print.MaybePrettyJSON(richErr.Metadata)
			}
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
				"details", details,
			)
		} else {
			logger.Debug("request rejected",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"text_code", richErr.TextCode,
			)
		}

		if status >= http.StatusInternalServerError {
			res.Errors = []string{msgServerError}
		} else {
			res.Errors = errorsFor(richErr, res.Message)
		}

		return c.Status(status).JSON(res)
	}
}

func toRichError(err error) *goerrors.Error {
	var dup *DuplicateFieldError
	if goerrors.As(err, &dup) {
		return dup.RichError()
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	var fiberErr *fiber.Error
	if goerrors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, msgServerError).
		WithCode(goerrors.CodeInternal).
		WithTextCode(TextCodeInternal)
}

func fromFiberError(err *fiber.Error) *goerrors.Error {
	switch err.Code {
	case fiber.StatusNotFound:
		return ErrResourceNotFound
	case fiber.StatusForbidden:
		return goerrors.New(err.Message, goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden).
			WithTextCode(TextCodeForbidden)
	}

	category := goerrors.CategoryBadInput
	if err.Code >= http.StatusInternalServerError {
		category = goerrors.CategoryInternal
	}

	return goerrors.New(err.Message, category).WithCode(err.Code)
}

func statusFor(err *goerrors.Error) int {
	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func titleFor(err *goerrors.Error, status int) string {
	switch err.TextCode {
	case TextCodeInvalidCreds:
		return "Login failed"
	case TextCodeAuthenticationRequired:
		return "Authentication required"
	case TextCodeValidation:
		return "Bad request."
	case TextCodeDuplicateField:
		return "Validation error"
	}

	switch status {
	case http.StatusNotFound:
		return "Resource Not Found"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusUnauthorized:
		return "Authentication required"
	}

	if status >= http.StatusInternalServerError {
		return "Server Error"
	}

	return http.StatusText(status)
}

func errorsFor(err *goerrors.Error, message string) any {
	if err.Metadata != nil {
		if v, ok := err.Metadata["errors"]; ok {
			return v
		}
	}
	return []string{message}
}

package echomw

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reoring/instruct"
	"github.com/reoring/instruct/middleware"
	"github.com/reoring/instruct/value"
)

// DecodeJSON decodes the request body into an ordered value tree and stores it
// in the request context. Malformed JSON, duplicate keys and excessive nesting
// answer 400 with Issues. Body read errors (such as the body limit) are
// returned to echo's error handler.
func DecodeJSON(opt instruct.DecodeOpt) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			data, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return err
			}
			body, err := instruct.DecodeJSON(data, opt)
			if err != nil {
				if iss, ok := instruct.AsIssues(err); ok {
					return c.JSON(http.StatusBadRequest, middleware.ErrorPayload("invalid JSON body", iss))
				}
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(err.Error(), nil))
			}
			ctx := middleware.ContextWithBody(c.Request().Context(), body)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetBody fetches the decoded body from echo.Context.
func GetBody(c echo.Context) (any, bool) {
	return middleware.BodyFromContext(c.Request().Context())
}

// GetTree fetches the decoded body when it is a JSON object.
func GetTree(c echo.Context) (*value.Tree, bool) {
	v, ok := GetBody(c)
	if !ok {
		return nil, false
	}
	t, ok := v.(*value.Tree)
	return t, ok
}

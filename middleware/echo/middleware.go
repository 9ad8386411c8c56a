package echomw

import (
	"github.com/labstack/echo/v4"
	"github.com/reoring/formdata"
	"github.com/reoring/formdata/middleware"
)

// ProcessForm runs the multipart request body through form and stores the
// resulting Map in the request context, or responds with an issues payload
// when the submission is rejected.
func ProcessForm(form *formdata.Form, opts ...formdata.ProcessOpt) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, err := middleware.Parse(c.Request(), form, opts...)
			if err != nil {
				if iss, ok := formdata.AsIssues(err); ok {
					return c.JSON(middleware.StatusCode(err), middleware.ErrorPayload(iss))
				}
				return c.JSON(middleware.StatusCode(err), map[string]any{"error": err.Error()})
			}
			ctx := middleware.ContextWithValue(c.Request().Context(), v)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValue fetches the processed submission from echo.Context.
func GetValue(c echo.Context) (formdata.Map, bool) {
	return middleware.ValueFromContext(c.Request().Context())
}

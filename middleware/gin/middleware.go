package ginmw

import (
	"github.com/gin-gonic/gin"
	"github.com/reoring/formdata"
	"github.com/reoring/formdata/middleware"
)

// ProcessForm runs the multipart request body through form, stores the
// resulting Map in the request context and calls the next handler. Rejected
// submissions abort with the status from middleware.StatusCode and an issues
// payload.
func ProcessForm(form *formdata.Form, opts ...formdata.ProcessOpt) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := middleware.Parse(c.Request, form, opts...)
		if err != nil {
			iss, ok := formdata.AsIssues(err)
			if !ok {
				c.AbortWithStatusJSON(middleware.StatusCode(err), gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(middleware.StatusCode(err), middleware.ErrorPayload(iss))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithValue(c.Request.Context(), v))
		c.Next()
	}
}

// GetValue fetches the processed submission from gin.Context.
func GetValue(c *gin.Context) (formdata.Map, bool) {
	return middleware.ValueFromContext(c.Request.Context())
}

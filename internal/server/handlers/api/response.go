package api

import "github.com/gin-gonic/gin"

// AbortWithError records err on the context for the access log and writes an APIError body
func AbortWithError(ctx *gin.Context, status int, code string, err error) {
	ctx.Abort()
	ctx.Error(err)
	ctx.PureJSON(status, APIError{
		Code:    code,
		Message: err.Error(),
	})
}

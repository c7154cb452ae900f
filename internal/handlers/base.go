package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// abortError reports a failed request with a specific status and records the
// error so the transaction scope rolls the request back.
func abortError(c *gin.Context, status int, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// abortInternal hides unexpected errors behind a generic server fault.
func abortInternal(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

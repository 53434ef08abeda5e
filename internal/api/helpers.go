package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// page is a clamped limit/offset window over the article store.
type page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// pageFromQuery reads ?limit= and ?offset=. Unparseable or out-of-range
// values fall back to the defaults; limit is capped at maxListLimit.
func pageFromQuery(c *gin.Context) page {
	p := page{Limit: defaultListLimit}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.Limit = min(n, maxListLimit)
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		p.Offset = n
	}
	return p
}

type errorBody struct {
	Error string `json:"error"`
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorBody{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondUnavailable(c *gin.Context, what string) {
	respondError(c, http.StatusServiceUnavailable, what+" is not configured")
}

func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}

package middlewares

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

var (
	// raw file transfers are already compressed or not worth it
	excludedPathsRegex = []string{
		"^/files/.*",
	}
	excludedExtensions = []string{
		".png", ".gif", ".jpeg", ".jpg", ".webp", ".pdf",
	}
)

func GZIP() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.BestSpeed,
		gzip.WithExcludedPathsRegexs(excludedPathsRegex),
		gzip.WithExcludedExtensions(excludedExtensions),
	)
}

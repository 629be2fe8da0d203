package utils

import (
	"path/filepath"
	"strings"
)

const DefaultContentType = "application/octet-stream"

// contentTypes is the fixed extension table used for uploads. It is not
// derived from the host mime database so every machine tags objects the same way.
var contentTypes = map[string]string{
	".md":         "text/markdown",
	".txt":        "text/plain",
	".json":       "application/json",
	".yml":        "text/yaml",
	".yaml":       "text/yaml",
	".png":        "image/png",
	".jpg":        "image/jpeg",
	".jpeg":       "image/jpeg",
	".gif":        "image/gif",
	".svg":        "image/svg+xml",
	".webp":       "image/webp",
	".pdf":        "application/pdf",
	".csv":        "text/csv",
	".excalidraw": "application/json",
}

// DetectContentType returns the content type for key based on its extension.
func DetectContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct
	}
	return DefaultContentType
}

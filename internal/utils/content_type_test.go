package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"note.md", "text/markdown"},
		{"NOTE.MD", "text/markdown"},
		{"todo.txt", "text/plain"},
		{"data.json", "application/json"},
		{"conf.yml", "text/yaml"},
		{"conf.yaml", "text/yaml"},
		{"img/a.png", "image/png"},
		{"img/a.jpg", "image/jpeg"},
		{"img/a.jpeg", "image/jpeg"},
		{"img/a.gif", "image/gif"},
		{"img/a.svg", "image/svg+xml"},
		{"img/a.webp", "image/webp"},
		{"doc.pdf", "application/pdf"},
		{"table.csv", "text/csv"},
		{"drawing.excalidraw", "application/json"},
		{"archive.zip", DefaultContentType},
		{"noext", DefaultContentType},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectContentType(tt.key), tt.key)
	}
}

func TestBytesHash(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", BytesHash(nil))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", BytesHash([]byte("hello")))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "*****", MaskSecret("abc"))
	assert.Equal(t, "abcd*****", MaskSecret("abcdefgh"))
}

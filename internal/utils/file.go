package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// FileHash returns the hex encoded MD5 of the file at filePath.
func FileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// BytesHash returns the hex encoded MD5 of data.
func BytesHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsAllowedFileType(filename string, allowedTypes []string) bool {
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")

	for _, allowedType := range allowedTypes {
		if ext == allowedType {
			return true
		}
	}

	return false
}

func IsImageFile(filename string) bool {
	return IsAllowedFileType(filename, AllowedImageTypes)
}

func IsAudioFile(filename string) bool {
	return IsAllowedFileType(filename, AllowedAudioTypes)
}

func IsVideoFile(filename string) bool {
	return IsAllowedFileType(filename, AllowedVideoTypes)
}

// DetectContentType prefers the declared type and falls back to the file extension.
func DetectContentType(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(GetFileExtension(filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

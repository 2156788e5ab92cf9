package util

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMimeType 根据文件头识别 MIME 类型，忽略参数部分（如 charset）
func DetectMimeType(reader io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", err
	}
	return BaseMimeType(mt.String()), nil
}

func BaseMimeType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// MimeAllowed 完全匹配白名单
func MimeAllowed(mimeType string, allowed []string) bool {
	mimeType = BaseMimeType(mimeType)
	for _, a := range allowed {
		if a == mimeType {
			return true
		}
	}
	return false
}

// ExtensionFor 优先使用原文件名的扩展名
func ExtensionFor(filename, mimeType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if mt := mimetype.Lookup(mimeType); mt != nil {
		return mt.Extension()
	}
	return ""
}

func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/")
}

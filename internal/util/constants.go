package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 课程媒体允许的 MIME 类型
var (
	ThumbnailMimeTypes  = []string{"image/jpeg", "image/png", "image/webp"}
	PromoVideoMimeTypes = []string{"video/mp4", "video/webm", "video/quicktime"}
)

// 列表字段条目数量限制
const (
	WhatYouLearnMin = 1
	WhatYouLearnMax = 20
	RequirementsMin = 0
	RequirementsMax = 10
)

const DefaultMaxUploadBytes int64 = 100 << 20

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

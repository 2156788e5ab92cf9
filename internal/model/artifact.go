package model

// Artifact 上传服务返回的文件描述，Path 为存储 key
type Artifact struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

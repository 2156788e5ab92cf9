package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type TopicType string

const (
	TopicVideo TopicType = "video"
	TopicPDF   TopicType = "pdf"
	TopicText  TopicType = "text"
	TopicQuiz  TopicType = "quiz"
)

func (t TopicType) Valid() bool {
	switch t {
	case TopicVideo, TopicPDF, TopicText, TopicQuiz:
		return true
	}
	return false
}

// TopicContent 主题内容，每种 TopicType 对应一个实现
type TopicContent interface {
	TopicType() TopicType
	validate() error
}

type VideoContent struct {
	VideoURL string `json:"videoUrl"`
}

type PDFContent struct {
	PDFURL string `json:"pdfUrl"`
}

type TextContent struct {
	TextContent string `json:"textContent"`
}

type QuizContent struct {
	QuizID string `json:"quizId"`
}

func (VideoContent) TopicType() TopicType { return TopicVideo }
func (PDFContent) TopicType() TopicType   { return TopicPDF }
func (TextContent) TopicType() TopicType  { return TopicText }
func (QuizContent) TopicType() TopicType  { return TopicQuiz }

func (c VideoContent) validate() error {
	if strings.TrimSpace(c.VideoURL) == "" {
		return errors.New("videoUrl is required for video topics")
	}
	return nil
}

func (c PDFContent) validate() error {
	if strings.TrimSpace(c.PDFURL) == "" {
		return errors.New("pdfUrl is required for pdf topics")
	}
	return nil
}

func (c TextContent) validate() error {
	if strings.TrimSpace(c.TextContent) == "" {
		return errors.New("textContent is required for text topics")
	}
	return nil
}

func (c QuizContent) validate() error {
	if strings.TrimSpace(c.QuizID) == "" {
		return errors.New("quizId is required for quiz topics")
	}
	return nil
}

// NewTopicContent 按类型解析并校验内容，缺少对应字段即报错
func NewTopicContent(t TopicType, raw json.RawMessage) (TopicContent, error) {
	content, err := decodeTopicContent(t, raw)
	if err != nil {
		return nil, err
	}
	if err := content.validate(); err != nil {
		return nil, err
	}
	return content, nil
}

func decodeTopicContent(t TopicType, raw json.RawMessage) (TopicContent, error) {
	var content TopicContent
	switch t {
	case TopicVideo:
		var c VideoContent
		if err := unmarshalContent(raw, &c); err != nil {
			return nil, err
		}
		content = c
	case TopicPDF:
		var c PDFContent
		if err := unmarshalContent(raw, &c); err != nil {
			return nil, err
		}
		content = c
	case TopicText:
		var c TextContent
		if err := unmarshalContent(raw, &c); err != nil {
			return nil, err
		}
		content = c
	case TopicQuiz:
		var c QuizContent
		if err := unmarshalContent(raw, &c); err != nil {
			return nil, err
		}
		content = c
	default:
		return nil, fmt.Errorf("unknown topic type %q", t)
	}
	return content, nil
}

func unmarshalContent(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("content must be an object: %v", err)
	}
	return nil
}

// Topic 嵌入在 Module 中的内容单元
// swagger:model
type Topic struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        TopicType    `json:"type"`
	Description string       `json:"description"`
	Order       int          `json:"order"`
	Content     TopicContent `json:"content" swaggertype:"object"`
}

// QuizID 仅 quiz 类型返回引用的测验 ID
func (t Topic) QuizID() string {
	if c, ok := t.Content.(QuizContent); ok {
		return c.QuizID
	}
	return ""
}

func (t *Topic) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Type        TopicType       `json:"type"`
		Description string          `json:"description"`
		Order       int             `json:"order"`
		Content     json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	content, err := decodeTopicContent(aux.Type, aux.Content)
	if err != nil {
		return err
	}
	*t = Topic{
		ID:          aux.ID,
		Title:       aux.Title,
		Type:        aux.Type,
		Description: aux.Description,
		Order:       aux.Order,
		Content:     content,
	}
	return nil
}

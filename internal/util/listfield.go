package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseListField 解析列表字段，兼容三种提交形式：
// 原生 JSON 数组、JSON 数组形式的字符串、逗号分隔的字符串。
// 空白项会被去掉，min/max 为去空后的条目数量限制。
func ParseListField(field string, raw json.RawMessage, min, max int) ([]string, error) {
	items, err := decodeList(raw)
	if err != nil {
		return nil, NewValidationError(field, err.Error())
	}
	if len(items) < min {
		if min == 1 {
			return nil, NewValidationError(field, "at least one item is required")
		}
		return nil, NewValidationError(field, fmt.Sprintf("at least %d items are required", min))
	}
	if len(items) > max {
		return nil, NewValidationError(field, fmt.Sprintf("at most %d items are allowed", max))
	}
	return items, nil
}

func decodeList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}

	switch raw[0] {
	case '[':
		return decodeArray(raw)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("must be a list or a string")
		}
		return splitListString(s)
	default:
		return nil, fmt.Errorf("must be a list or a string")
	}
}

func decodeArray(raw []byte) ([]string, error) {
	var values []interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("malformed list: %v", err)
	}
	items := make([]string, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("item %d must be a string", i)
		}
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	return items, nil
}

func splitListString(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(s, "[") {
		items, err := decodeArray([]byte(s))
		if err != nil {
			return nil, err
		}
		return items, nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items, nil
}

package markup

import (
	"fmt"
	"strconv"
	"strings"
)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// ${path|默认值} 在路径不存在时使用默认值；没有默认值时保留原占位符。
func Interpolate(text string, data any) string {
	if !strings.Contains(text, "${") {
		return text
	}
	var sb strings.Builder
	for {
		i := strings.Index(text, "${")
		if i < 0 {
			break
		}
		end := strings.IndexByte(text[i:], '}')
		if end < 0 {
			break
		}
		sb.WriteString(text[:i])
		sb.WriteString(expand(text[i:i+end+1], data))
		text = text[i+end+1:]
	}
	sb.WriteString(text)
	return sb.String()
}

// expand resolves a single "${...}" placeholder.
func expand(placeholder string, data any) string {
	expr := placeholder[2 : len(placeholder)-1]
	path, fallback, hasFallback := strings.Cut(expr, "|")
	path = strings.TrimSpace(path)
	if path != "" && data != nil {
		if v, ok := lookup(data, path); ok {
			return fmt.Sprint(v)
		}
	}
	if hasFallback {
		return fallback
	}
	return placeholder
}

// lookup walks path segments such as `items[0].name` through maps and slices
// decoded from JSON.
func lookup(data any, path string) (any, bool) {
	cur := data
	for _, seg := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(seg, "[")
		if name != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = m[name]; !ok {
				return nil, false
			}
		}
		for rest != "" {
			idx, tail, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, false
			}
			n, err := strconv.Atoi(idx)
			if err != nil {
				return nil, false
			}
			arr, isArr := cur.([]any)
			if !isArr || n < 0 || n >= len(arr) {
				return nil, false
			}
			cur = arr[n]
			if tail == "" {
				break
			}
			if tail[0] != '[' {
				return nil, false
			}
			rest = tail[1:]
		}
	}
	return cur, true
}

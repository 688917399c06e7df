// Package fonts 提供内置的 Go 字体，供测量与渲染共用。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"go/regular":        goregular.TTF,
	"go/bold":           gobold.TTF,
	"go/italic":         goitalic.TTF,
	"go/bolditalic":     gobolditalic.TTF,
	"gomono/regular":    gomono.TTF,
	"gomono/bold":       gomonobold.TTF,
	"gomono/italic":     gomonoitalic.TTF,
	"gomono/bolditalic": gomonobolditalic.TTF,
}

// Name returns the built-in font name for a family and style.
// Unknown families fall back to "go".
func Name(family string, bold, italic bool) string {
	f := strings.ToLower(strings.TrimSpace(family))
	if f != "gomono" && f != "mono" {
		f = "go"
	} else {
		f = "gomono"
	}
	switch {
	case bold && italic:
		return f + "/bolditalic"
	case bold:
		return f + "/bold"
	case italic:
		return f + "/italic"
	default:
		return f + "/regular"
	}
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go/bold" 或直接 "go/bold"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 可用字体为 %s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names lists the built-in fonts.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

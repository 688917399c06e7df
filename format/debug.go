package format

import (
	"encoding/json"
	"os"

	"github.com/ByLCY/papyrus-text/layout"
)

type debugLine struct {
	Index int          `json:"index"`
	Start int          `json:"start"`
	Top   int          `json:"top"`
	Text  string       `json:"text"`
	Line  *layout.Line `json:"line"`
}

type debugDump struct {
	Length   int         `json:"length"`
	Height   int         `json:"height"`
	Complete bool        `json:"complete"`
	Lines    []debugLine `json:"lines"`
}

// WriteDebugJSON 将已排版的行表输出为 JSON，便于调试或可视化。
func (f *Formatter) WriteDebugJSON(path string) error {
	f.mu.Lock()
	dump := debugDump{Length: f.length(), Height: f.height(), Complete: f.complete}
	for i := 0; i < f.lines.Len(); i++ {
		l, start := f.line(i), f.lineStart(i)
		text := make([]rune, 0, l.CharLength)
		for k := start; k < start+l.CharLength; k++ {
			text = append(text, f.src.CharAt(k))
		}
		dump.Lines = append(dump.Lines, debugLine{Index: i, Start: start, Top: f.lineTop(i), Text: string(text), Line: l})
	}
	f.mu.Unlock()

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

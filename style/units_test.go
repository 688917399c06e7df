package style

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestParseLength 覆盖常见单位到像素的转换。
func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"36", 36},
		{"12pt", 12},
		{"10px", 10},
		{"1in", 72},
		{"25.4mm", 72},
		{"2.54cm", 72},
	}
	for _, tt := range tests {
		l, err := ParseLength(tt.in)
		if err != nil {
			t.Fatalf("ParseLength(%q) error: %v", tt.in, err)
		}
		if got := l.Px(); math.Abs(got-tt.want) > 1e-3 {
			t.Fatalf("ParseLength(%q).Px() = %g, want %g", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLength("abc"); err == nil {
		t.Fatalf("ParseLength(abc) 应返回错误")
	}
}

// TestLineHeightResolve 验证行高解析：倍数与绝对值两种语义。
func TestLineHeightResolve(t *testing.T) {
	lh, err := ParseLineHeight("1.5x")
	if err != nil {
		t.Fatalf("ParseLineHeight error: %v", err)
	}
	if got := lh.Resolve(12); math.Abs(got-18) > 1e-9 {
		t.Fatalf("1.5x 解析错误: got=%g want=18", got)
	}
	lh, err = ParseLineHeight("6mm")
	if err != nil {
		t.Fatalf("ParseLineHeight error: %v", err)
	}
	if got, want := lh.Resolve(12), 6*MmToPt; math.Abs(got-want) > 1e-9 {
		t.Fatalf("6mm 行高解析错误: got=%g want=%g", got, want)
	}
}

package format

import (
	"go.uber.org/zap"
)

// Fill is the direction in which lines stack.
type Fill int

const (
	// TopToBottom stacks lines downwards from the origin, which is the
	// top-left corner of the text.
	TopToBottom Fill = iota
	// BottomToTop stacks lines upwards from the origin, which is the
	// bottom-left corner of the text.
	BottomToTop
)

// Move is a caret movement for FindInsertionOffset.
type Move int

const (
	MoveLeft Move = iota
	MoveRight
	MoveUp
	MoveDown
)

// DefaultRendererCacheSize bounds the paragraph renderer cache when
// Options leaves it unset.
const DefaultRendererCacheSize = 32

// Options 配置格式化器。
type Options struct {
	// Width is the fill width in pixels.
	Width float64
	// Wrap breaks lines at Width. Unwrapped lines are laid out flush to
	// the leading margin and may run past Width.
	Wrap bool
	Fill Fill
	// Logger receives reformat events; nil discards them.
	Logger *zap.Logger
	// RendererCacheSize bounds the per-paragraph-style renderer cache.
	RendererCacheSize int
	// DisableMeasurerReuse turns off patching the cached measurer after
	// single-character edits.
	DisableMeasurerReuse bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.RendererCacheSize <= 0 {
		o.RendererCacheSize = DefaultRendererCacheSize
	}
	return o
}

package authflow

import (
	"sort"
	"weak"
)

// Level orders host windows.  Higher levels are drawn above lower ones.
type Level int

const (
	LevelNormal    Level = 0
	LevelStatusBar Level = 1000
	LevelAlert     Level = 2000
)

// Window is a host UI surface an authentication flow can be presented from.
type Window struct {
	ID             string
	Level          Level
	HasContentRoot bool
}

// WindowSource lists the host's windows.  Implementations own the windows; the resolver only keeps weak references.
type WindowSource interface {
	KeyWindow() *Window
	Windows() []*Window
}

// Anchor is a weak reference to the Window a session presents from.  The host may destroy and recreate windows at any
// time, so anchors are resolved for each session start and never cached.
type Anchor struct {
	window weak.Pointer[Window]
}

// NewAnchor returns an anchor referencing w.  A nil window gives the empty anchor.
func NewAnchor(w *Window) Anchor {
	if w == nil {
		return Anchor{}
	}
	return Anchor{window: weak.Make(w)}
}

// Window returns the referenced window, or nil if the anchor is empty or the window has been released.
func (a Anchor) Window() *Window {
	return a.window.Value()
}

// IsZero reports whether the anchor no longer references a window.
func (a Anchor) IsZero() bool {
	return a.Window() == nil
}

// AnchorResolver finds the window to present from.
type AnchorResolver struct {
	source WindowSource
}

func NewAnchorResolver(source WindowSource) *AnchorResolver {
	return &AnchorResolver{source: source}
}

// Resolve prefers the key window when it sits at the normal level.  Otherwise it scans all windows from the highest
// level down and picks the first normal level window with a content root.  When nothing qualifies it returns
// ErrNoHostSurface if required is set, or the empty Anchor if not.
func (r *AnchorResolver) Resolve(required bool) (Anchor, error) {
	if w := r.find(); w != nil {
		return NewAnchor(w), nil
	}
	if required {
		return Anchor{}, ErrNoHostSurface
	}
	return Anchor{}, nil
}

func (r *AnchorResolver) find() *Window {
	if r.source == nil {
		return nil
	}
	if key := r.source.KeyWindow(); key != nil && key.Level == LevelNormal {
		return key
	}

	windows := append([]*Window(nil), r.source.Windows()...)
	sort.SliceStable(windows, func(i, j int) bool {
		return windowLevel(windows[i]) > windowLevel(windows[j])
	})
	for _, w := range windows {
		if w != nil && w.Level == LevelNormal && w.HasContentRoot {
			return w
		}
	}
	return nil
}

func windowLevel(w *Window) Level {
	if w == nil {
		return LevelNormal - 1
	}
	return w.Level
}

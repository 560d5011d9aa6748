// =============================================================================
// Purchase Order Form Engine - Reorder Engine
// =============================================================================
//
// Drag-and-drop reordering of line-item rows, columns, top-level sections and
// the swappable left/right pairs (header, vendor/ship-to, comments/totals).
//
// GESTURE LIFECYCLE:
//   idle -> DragStart -> (DragOver | DragLeave)* -> Drop | DragEnd -> idle
//
//   Each gesture is a DragSession value returned by DragStart and handed
//   back on every later event. The engine only remembers the active session
//   so that a stale one (events delivered out of order) can be cleaned up
//   when the next gesture starts.
//
// SWAPS:
//   Every swap is a node reinsertion anchored on a placeholder (dom.Swap).
//   After a successful drop the pair metadata (data-section, width,
//   padding) is resynced, totals are recalculated and the export preview is
//   refreshed when it is open.
//
// =============================================================================

package reorder

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/calc"
	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
)

// Visual state classes.
const (
	ClassDragging = "dragging"
	ClassDropZone = "drop-zone"
	ClassDragOver = "drag-over"
)

// Kind is the level a drag gesture operates on.
type Kind string

const (
	Row     Kind = "row"
	Column  Kind = "column"
	Section Kind = "section"
	Pair    Kind = "pair"
)

// ParseKind resolves a drag kind name.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case Row, Column, Section, Pair:
		return k, true
	}
	return "", false
}

// Policy controls which gestures the engine accepts.
type Policy struct {
	// AllowRowReorder enables row drags. Off by default so that a row keeps
	// its line-item identity.
	AllowRowReorder bool

	// DragOverDebounce delays drop-zone highlighting while the pointer moves.
	DragOverDebounce time.Duration
}

// DefaultPolicy returns the editor defaults.
func DefaultPolicy() Policy {
	return Policy{AllowRowReorder: false, DragOverDebounce: 50 * time.Millisecond}
}

// Previewer re-renders the export preview after a successful drop.
type Previewer interface {
	RefreshPreview(doc *html.Node) error
}

// DragSession is the transient state of one gesture.
type DragSession struct {
	Kind   Kind
	Source *html.Node
	Index  int
	Target *html.Node

	doc   *html.Node
	group sections.Group
	timer *time.Timer
	ended bool
}

// Engine applies drag gestures and direct swaps to a form document.
type Engine struct {
	policy  Policy
	mapper  *columns.Mapper
	calc    *calc.Calculator
	preview Previewer
	logger  *zap.Logger

	// mu serializes document mutations, including debounce callbacks.
	mu     sync.Mutex
	active *DragSession
}

// New creates an Engine. Nil collaborators get defaults.
func New(policy Policy, mapper *columns.Mapper, calculator *calc.Calculator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mapper == nil {
		mapper = columns.NewMapper(nil, logger)
	}
	if calculator == nil {
		calculator = calc.New(mapper, nil, logger)
	}
	return &Engine{policy: policy, mapper: mapper, calc: calculator, logger: logger}
}

// SetPreviewer registers the preview refresher called after every drop.
func (e *Engine) SetPreviewer(p Previewer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preview = p
}

// Policy returns the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// =============================================================================
// SWAPPABLE SETS
// =============================================================================

// members returns the set the element can be swapped within, and the pair
// group for Pair drags.
func (e *Engine) members(doc *html.Node, kind Kind, el *html.Node) ([]*html.Node, sections.Group) {
	switch kind {
	case Row:
		return dom.BodyRows(columns.ItemTable(doc)), ""
	case Column:
		return columns.HeaderCells(doc), ""
	case Section:
		return sections.SectionElements(doc), ""
	case Pair:
		if g, ok := groupOf(doc, el); ok {
			return sections.PairCells(doc, g), g
		}
	}
	return nil, ""
}

// resolve walks up from n to the nearest member of set.
func resolve(set []*html.Node, n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if dom.IndexOf(set, n) >= 0 {
			return n
		}
	}
	return nil
}

// =============================================================================
// GESTURE EVENTS
// =============================================================================

// DragStart begins a gesture on el. A leftover session is cleaned up first.
func (e *Engine) DragStart(doc *html.Node, kind Kind, el *html.Node) (*DragSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.logger.Debug("cleaning up stale drag session", zap.String("kind", string(e.active.Kind)))
		e.cleanup(e.active)
	}
	if kind == Row && !e.policy.AllowRowReorder {
		return nil, ErrRowReorderDisabled
	}

	set, group := e.members(doc, kind, el)
	src := resolve(set, el)
	if src == nil {
		return nil, fmt.Errorf("%s drag: %w", kind, ErrNotDraggable)
	}
	idx := dom.IndexOf(set, src)
	if kind == Column && e.mapper.MapColumns(doc).KindAt(idx) == columns.DragHandle {
		return nil, fmt.Errorf("drag handle column: %w", ErrNotDraggable)
	}

	s := &DragSession{Kind: kind, Source: src, Index: idx, doc: doc, group: group}
	dom.AddClass(src, ClassDragging)
	e.active = s
	e.logger.Debug("drag started", zap.String("kind", string(kind)), zap.Int("index", idx))
	return s, nil
}

// DragOver highlights target once the debounce window has passed without
// another DragOver. Invalid targets are ignored.
func (e *Engine) DragOver(s *DragSession, target *html.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil || s.ended {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	set, _ := e.members(s.doc, s.Kind, s.Source)
	t := resolve(set, target)
	if t == nil || t == s.Source {
		return
	}

	if e.policy.DragOverDebounce <= 0 {
		e.highlight(s, t)
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(e.policy.DragOverDebounce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if s.ended || s.timer != timer {
			return
		}
		s.timer = nil
		e.highlight(s, t)
	})
	s.timer = timer
}

// DragLeave removes the highlight from target when the pointer has moved to
// related, an element outside target.
func (e *Engine) DragLeave(s *DragSession, target, related *html.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil || s.ended || target == nil {
		return
	}
	if related != nil && dom.Contains(target, related) {
		return
	}
	dom.RemoveClass(target, ClassDropZone, ClassDragOver)
	if s.Target == target {
		s.Target = nil
	}
}

// Drop completes the gesture on target. It reports whether a swap happened;
// a drop on the source, outside the set or after cleanup is a silent no-op.
func (e *Engine) Drop(s *DragSession, target *html.Node) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil || s.ended {
		return false, nil
	}
	defer e.cleanup(s)

	set, _ := e.members(s.doc, s.Kind, s.Source)
	t := resolve(set, target)
	from := dom.IndexOf(set, s.Source)
	to := dom.IndexOf(set, t)
	if t == nil || t == s.Source || from < 0 || to < 0 {
		e.logger.Debug("ignored drop", zap.String("kind", string(s.Kind)), zap.Int("from", from), zap.Int("to", to))
		return false, nil
	}

	var err error
	switch s.Kind {
	case Row:
		if !e.policy.AllowRowReorder {
			return false, ErrRowReorderDisabled
		}
		err = dom.Swap(s.Source, t)
	case Column:
		err = e.swapColumns(s.doc, from, to)
	case Section:
		err = dom.Swap(s.Source, t)
	case Pair:
		err = e.swapPair(s.doc, s.group, s.Source, t)
	}
	if err != nil {
		return false, err
	}

	e.logger.Info("drop applied", zap.String("kind", string(s.Kind)), zap.Int("from", from), zap.Int("to", to))
	e.afterSwap(s.doc)
	return true, nil
}

// DragEnd clears every visual state and pending timer of the gesture,
// whether or not a drop happened.
func (e *Engine) DragEnd(s *DragSession) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s != nil {
		e.cleanup(s)
	}
}

// highlight moves the drop-zone classes to t. Caller holds mu.
func (e *Engine) highlight(s *DragSession, t *html.Node) {
	if s.Target != nil && s.Target != t {
		dom.RemoveClass(s.Target, ClassDropZone, ClassDragOver)
	}
	dom.AddClass(t, ClassDropZone, ClassDragOver)
	s.Target = t
}

// cleanup ends the session. Caller holds mu.
func (e *Engine) cleanup(s *DragSession) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.Source != nil {
		dom.RemoveClass(s.Source, ClassDragging)
	}
	for _, n := range dom.FindAll(s.doc, dom.Any(dom.Class(ClassDropZone), dom.Class(ClassDragOver))) {
		dom.RemoveClass(n, ClassDropZone, ClassDragOver)
	}
	s.Target = nil
	s.ended = true
	if e.active == s {
		e.active = nil
	}
}

// afterSwap recalculates totals and refreshes the preview. Caller holds mu.
func (e *Engine) afterSwap(doc *html.Node) {
	e.calc.Refresh(doc)
	if e.preview == nil {
		return
	}
	if err := e.preview.RefreshPreview(doc); err != nil {
		e.logger.Warn("preview refresh failed", zap.Error(err))
	}
}

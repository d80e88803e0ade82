package geometry

import (
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// Default node extents and grid constants. Positions, once established,
// are sticky: re-running placement never moves an already-positioned node.
const (
	ComponentWidth  = 180.0
	ComponentHeight = 90.0
	ContainerWidth  = 460.0
	ContainerHeight = 320.0

	rootGridColumns = 4
	rootGridStepX   = 220.0
	rootGridStepY   = 130.0
	rootGridOriginX = 40.0
	rootGridOriginY = 40.0

	childGridColumns = 3
	childGridOffsetX = 30.0
	childGridOffsetY = 50.0
	childGridStepX   = 200.0
	childGridStepY   = 110.0
)

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Intersects reports whether two rectangles touch or overlap.
// Closed intervals: edge-touching counts as intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.Right() && r.Right() >= other.X &&
		r.Y <= other.Bottom() && r.Bottom() >= other.Y
}

// OverlapArea returns the area of the intersection of two rectangles.
// Rectangles that merely touch have zero overlap area.
func (r Rect) OverlapArea(other Rect) float64 {
	w := minOf(r.Right(), other.Right()) - maxOf(r.X, other.X)
	h := minOf(r.Bottom(), other.Bottom()) - maxOf(r.Y, other.Y)
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w * h
}

// Containment pairs a container with how much of a dropped rectangle it covers.
type Containment struct {
	ContainerID string
	OverlapArea float64
}

// LayoutIndex owns presentation-only geometry: node positions and container
// sizes keyed by node id. It is a local cache independent from the canonical
// entities and is never authoritative for identity or invariants.
type LayoutIndex struct {
	positions map[string]model.Position
	sizes     map[string]model.Size
}

// NewLayoutIndex creates an empty layout index.
func NewLayoutIndex() *LayoutIndex {
	return &LayoutIndex{
		positions: make(map[string]model.Position),
		sizes:     make(map[string]model.Size),
	}
}

// Place records the position of a node.
func (li *LayoutIndex) Place(nodeID string, pos model.Position) {
	li.positions[nodeID] = pos
}

// Resize records the size of a container.
func (li *LayoutIndex) Resize(containerID string, size model.Size) {
	li.sizes[containerID] = size
}

// Forget drops any geometry recorded for the node.
func (li *LayoutIndex) Forget(nodeID string) {
	delete(li.positions, nodeID)
	delete(li.sizes, nodeID)
}

// PositionOf returns the recorded position of a node, if any.
func (li *LayoutIndex) PositionOf(nodeID string) (model.Position, bool) {
	pos, ok := li.positions[nodeID]
	return pos, ok
}

// SizeOf returns the recorded size of a container, if any.
func (li *LayoutIndex) SizeOf(nodeID string) (model.Size, bool) {
	size, ok := li.sizes[nodeID]
	return size, ok
}

// RectOf returns the bounding rectangle of a node, falling back to the
// fixed default extent for the node's category when no size is recorded.
func (li *LayoutIndex) RectOf(nodeID string, category model.NodeCategory) Rect {
	pos := li.positions[nodeID]
	size, ok := li.sizes[nodeID]
	if !ok {
		size = DefaultSize(category)
	}
	return Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}
}

// DefaultSize returns the fixed default extent for a node category.
func DefaultSize(category model.NodeCategory) model.Size {
	if category == model.CategoryContainer {
		return model.Size{Width: ContainerWidth, Height: ContainerHeight}
	}
	return model.Size{Width: ComponentWidth, Height: ComponentHeight}
}

// FindContainingContainers returns the candidate containers whose rectangle
// overlaps the dropped rectangle, sorted by overlap area descending. Ties
// resolve by container id so repeated runs give the same winner. Containers
// that merely touch the dropped rectangle (zero area) are not returned.
func (li *LayoutIndex) FindContainingContainers(pos model.Position, size model.Size, candidates []model.Node) []Containment {
	dropped := Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}

	matches := make([]Containment, 0, len(candidates))
	for _, c := range candidates {
		if !c.IsContainer() || c.IsGlobal() {
			continue
		}
		area := li.RectOf(c.ID, c.Category).OverlapArea(dropped)
		if area > 0 {
			matches = append(matches, Containment{ContainerID: c.ID, OverlapArea: area})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].OverlapArea != matches[j].OverlapArea {
			return matches[i].OverlapArea > matches[j].OverlapArea
		}
		return matches[i].ContainerID < matches[j].ContainerID
	})
	return matches
}

// ResolveParent picks the new parent for a node dropped at pos: the
// overlapping container with the largest overlap area, or "" (root) when
// nothing overlaps.
func (li *LayoutIndex) ResolveParent(pos model.Position, size model.Size, candidates []model.Node) string {
	matches := li.FindContainingContainers(pos, size, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].ContainerID
}

// EnsurePlaced assigns grid positions to nodes that have none yet.
// Root-level nodes land on a fixed 4-column grid; children of a container
// land on a 3-column sub-grid offset from the parent's top-left. Nodes that
// already have a position are never moved.
func (li *LayoutIndex) EnsurePlaced(nodes []model.Node) {
	// Root slots first so child sub-grids can anchor on parent positions.
	rootSlot := li.nextFreeSlot(nodes, "")
	for _, n := range sortedByID(nodes) {
		if n.ParentNodeID != "" {
			continue
		}
		if _, ok := li.positions[n.ID]; ok {
			continue
		}
		col := rootSlot % rootGridColumns
		row := rootSlot / rootGridColumns
		li.positions[n.ID] = model.Position{
			X: rootGridOriginX + float64(col)*rootGridStepX,
			Y: rootGridOriginY + float64(row)*rootGridStepY,
		}
		rootSlot++
	}

	childSlots := make(map[string]int)
	for _, n := range sortedByID(nodes) {
		if n.ParentNodeID == "" {
			continue
		}
		if _, ok := li.positions[n.ID]; ok {
			continue
		}
		parent := n.ParentNodeID
		if _, seeded := childSlots[parent]; !seeded {
			childSlots[parent] = li.nextFreeSlot(nodes, parent)
		}
		slot := childSlots[parent]
		childSlots[parent] = slot + 1

		origin := li.positions[parent]
		col := slot % childGridColumns
		row := slot / childGridColumns
		li.positions[n.ID] = model.Position{
			X: origin.X + childGridOffsetX + float64(col)*childGridStepX,
			Y: origin.Y + childGridOffsetY + float64(row)*childGridStepY,
		}
	}
}

// nextFreeSlot counts the already-positioned siblings under the given
// parent so new nodes continue the grid instead of stacking on slot zero.
func (li *LayoutIndex) nextFreeSlot(nodes []model.Node, parentID string) int {
	slot := 0
	for _, n := range nodes {
		if n.ParentNodeID != parentID {
			continue
		}
		if _, ok := li.positions[n.ID]; ok {
			slot++
		}
	}
	return slot
}

// State exports the index as a serializable layout state.
func (li *LayoutIndex) State() model.LayoutState {
	return model.LayoutState{Positions: li.positions, Sizes: li.sizes}.Clone()
}

// Adopt replaces the index contents wholesale with the given layout state,
// discarding any local-only geometry. Used after a savepoint restore.
func (li *LayoutIndex) Adopt(state model.LayoutState) {
	li.positions = make(map[string]model.Position, len(state.Positions))
	for id, p := range state.Positions {
		li.positions[id] = p
	}
	li.sizes = make(map[string]model.Size, len(state.Sizes))
	for id, s := range state.Sizes {
		li.sizes[id] = s
	}
}

func sortedByID(nodes []model.Node) []model.Node {
	out := make([]model.Node, len(nodes))
	copy(out, nodes)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func minOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

package geometry

import (
	"fmt"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// Every node exposes 12 fixed anchor points: 3 per side, at ratios
// 0.2/0.5/0.8 along that side. The same 12-point set serves as outgoing
// and incoming anchors. Enumeration order (top, right, bottom, left; low
// to high ratio) is the deterministic tie-break for equal distances.

// Side is one of the four edges of a node rectangle.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

var sideOrder = []Side{SideTop, SideRight, SideBottom, SideLeft}
var anchorRatios = []float64{0.2, 0.5, 0.8}

// Anchor is a fixed attachment point on a node's bounding box.
type Anchor struct {
	ID    string
	Side  Side
	Ratio float64
}

// anchors is the fixed 12-anchor set in enumeration order.
var anchors = buildAnchors()

// validHandleIDs indexes the fixed set for O(1) validity checks.
var validHandleIDs = func() map[string]bool {
	m := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		m[a.ID] = true
	}
	return m
}()

func buildAnchors() []Anchor {
	out := make([]Anchor, 0, 12)
	for _, side := range sideOrder {
		for _, ratio := range anchorRatios {
			out = append(out, Anchor{
				ID:    fmt.Sprintf("%s-%d", side, int(ratio*100)),
				Side:  side,
				Ratio: ratio,
			})
		}
	}
	return out
}

// Anchors returns the fixed 12-anchor set in enumeration order.
func Anchors() []Anchor {
	out := make([]Anchor, len(anchors))
	copy(out, anchors)
	return out
}

// ValidHandleID reports whether id is a member of the fixed 12-id set.
func ValidHandleID(id string) bool {
	return validHandleIDs[id]
}

// Point returns the absolute canvas coordinates of the anchor on rect.
func (a Anchor) Point(rect Rect) model.Position {
	switch a.Side {
	case SideTop:
		return model.Position{X: rect.X + rect.Width*a.Ratio, Y: rect.Y}
	case SideBottom:
		return model.Position{X: rect.X + rect.Width*a.Ratio, Y: rect.Bottom()}
	case SideLeft:
		return model.Position{X: rect.X, Y: rect.Y + rect.Height*a.Ratio}
	default: // SideRight
		return model.Position{X: rect.Right(), Y: rect.Y + rect.Height*a.Ratio}
	}
}

// HandleResolver chooses the closest pair of fixed anchors between two
// node rectangles using current LayoutIndex geometry.
type HandleResolver struct {
	layout *LayoutIndex
}

// NewHandleResolver creates a resolver over the given layout index.
func NewHandleResolver(layout *LayoutIndex) *HandleResolver {
	return &HandleResolver{layout: layout}
}

// Resolve picks the (sourceHandleID, targetHandleID) pair minimizing
// squared Euclidean distance between anchor points of the two nodes.
// Deterministic: ties break on first-encountered in enumeration order.
func (hr *HandleResolver) Resolve(source, target model.Node) (string, string) {
	srcRect := hr.layout.RectOf(source.ID, source.Category)
	dstRect := hr.layout.RectOf(target.ID, target.Category)
	return closestAnchorPair(srcRect, dstRect)
}

// Repair returns valid handle ids for an edge, keeping the stored ids when
// they are members of the fixed set and re-resolving otherwise.
func (hr *HandleResolver) Repair(edge model.Edge, source, target model.Node) (string, string) {
	if ValidHandleID(edge.SourceHandleID) && ValidHandleID(edge.TargetHandleID) {
		return edge.SourceHandleID, edge.TargetHandleID
	}
	return hr.Resolve(source, target)
}

func closestAnchorPair(srcRect, dstRect Rect) (string, string) {
	var bestSrc, bestDst string
	best := -1.0
	for _, sa := range anchors {
		sp := sa.Point(srcRect)
		for _, ta := range anchors {
			tp := ta.Point(dstRect)
			dx := sp.X - tp.X
			dy := sp.Y - tp.Y
			d := dx*dx + dy*dy
			if best < 0 || d < best {
				best = d
				bestSrc = sa.ID
				bestDst = ta.ID
			}
		}
	}
	return bestSrc, bestDst
}

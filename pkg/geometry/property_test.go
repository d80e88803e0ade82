package geometry

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// TestGeometryInvariants uses property-based testing to verify the pure
// geometry the graph editor depends on. These properties should ALWAYS
// hold for any node placement.
func TestGeometryInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	coord := gen.Float64Range(-10000, 10000)
	extent := gen.Float64Range(1, 2000)

	// Property 1: overlap area is symmetric and never negative
	properties.Property("overlap area is symmetric and non-negative", prop.ForAll(
		func(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
			a := Rect{X: ax, Y: ay, Width: aw, Height: ah}
			b := Rect{X: bx, Y: by, Width: bw, Height: bh}
			return a.OverlapArea(b) >= 0 && a.OverlapArea(b) == b.OverlapArea(a)
		},
		coord, coord, extent, extent,
		coord, coord, extent, extent,
	))

	// Property 2: positive overlap area implies intersection
	properties.Property("positive overlap implies intersection", prop.ForAll(
		func(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
			a := Rect{X: ax, Y: ay, Width: aw, Height: ah}
			b := Rect{X: bx, Y: by, Width: bw, Height: bh}
			if a.OverlapArea(b) > 0 {
				return a.Intersects(b)
			}
			return true
		},
		coord, coord, extent, extent,
		coord, coord, extent, extent,
	))

	// Property 3: handle resolution is deterministic for fixed geometry
	properties.Property("handle resolution is deterministic", prop.ForAll(
		func(ax, ay, bx, by float64) bool {
			li := NewLayoutIndex()
			li.Place("a", model.Position{X: ax, Y: ay})
			li.Place("b", model.Position{X: bx, Y: by})
			hr := NewHandleResolver(li)

			a := model.Node{ID: "a", Category: model.CategoryComponent}
			b := model.Node{ID: "b", Category: model.CategoryComponent}

			s1, t1 := hr.Resolve(a, b)
			s2, t2 := hr.Resolve(a, b)
			return s1 == s2 && t1 == t2 && ValidHandleID(s1) && ValidHandleID(t1)
		},
		coord, coord, coord, coord,
	))

	// Property 4: a rect fully inside a container is resolved to it
	properties.Property("full containment wins parent resolution", prop.ForAll(
		func(offX, offY float64) bool {
			li := NewLayoutIndex()
			li.Place("c", model.Position{X: 0, Y: 0})
			li.Resize("c", model.Size{Width: 1000, Height: 1000})

			candidates := []model.Node{{ID: "c", Name: "c", Category: model.CategoryContainer}}
			pos := model.Position{X: offX, Y: offY}
			size := model.Size{Width: 50, Height: 50}
			return li.ResolveParent(pos, size, candidates) == "c"
		},
		gen.Float64Range(0, 950),
		gen.Float64Range(0, 950),
	))

	properties.TestingRun(t)
}

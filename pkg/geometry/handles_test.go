package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

func TestAnchorSetIsFixed(t *testing.T) {
	all := Anchors()
	require.Len(t, all, 12)

	// Enumeration order: top, right, bottom, left; low to high ratio.
	assert.Equal(t, "top-20", all[0].ID)
	assert.Equal(t, "top-50", all[1].ID)
	assert.Equal(t, "top-80", all[2].ID)
	assert.Equal(t, "right-20", all[3].ID)
	assert.Equal(t, "left-80", all[11].ID)

	for _, a := range all {
		assert.True(t, ValidHandleID(a.ID))
	}
	assert.False(t, ValidHandleID("top-33"))
	assert.False(t, ValidHandleID(""))
}

func TestAnchorPoints(t *testing.T) {
	rect := Rect{X: 100, Y: 200, Width: 100, Height: 50}

	tests := []struct {
		id   string
		want model.Position
	}{
		{"top-20", model.Position{X: 120, Y: 200}},
		{"top-50", model.Position{X: 150, Y: 200}},
		{"bottom-80", model.Position{X: 180, Y: 250}},
		{"left-50", model.Position{X: 100, Y: 225}},
		{"right-20", model.Position{X: 200, Y: 210}},
	}

	byID := make(map[string]Anchor)
	for _, a := range Anchors() {
		byID[a.ID] = a
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, byID[tt.id].Point(rect))
		})
	}
}

func TestResolvePicksFacingSides(t *testing.T) {
	li := NewLayoutIndex()
	li.Place("a", model.Position{X: 0, Y: 0})
	li.Place("b", model.Position{X: 1000, Y: 0})
	hr := NewHandleResolver(li)

	src, dst := hr.Resolve(component("a"), component("b"))
	// b is directly to the right of a at the same height.
	assert.Equal(t, "right-50", src)
	assert.Equal(t, "left-50", dst)
}

func TestResolveVerticalStack(t *testing.T) {
	li := NewLayoutIndex()
	li.Place("a", model.Position{X: 0, Y: 0})
	li.Place("b", model.Position{X: 0, Y: 800})
	hr := NewHandleResolver(li)

	src, dst := hr.Resolve(component("a"), component("b"))
	assert.Equal(t, "bottom-50", src)
	assert.Equal(t, "top-50", dst)
}

func TestResolveIsDeterministic(t *testing.T) {
	li := NewLayoutIndex()
	li.Place("a", model.Position{X: 13, Y: 37})
	li.Place("b", model.Position{X: 420, Y: 240})
	hr := NewHandleResolver(li)

	firstSrc, firstDst := hr.Resolve(component("a"), component("b"))
	for i := 0; i < 10; i++ {
		src, dst := hr.Resolve(component("a"), component("b"))
		assert.Equal(t, firstSrc, src)
		assert.Equal(t, firstDst, dst)
	}
}

func TestRepairKeepsValidHandles(t *testing.T) {
	li := NewLayoutIndex()
	li.Place("a", model.Position{X: 0, Y: 0})
	li.Place("b", model.Position{X: 500, Y: 0})
	hr := NewHandleResolver(li)

	edge := model.Edge{SourceHandleID: "top-20", TargetHandleID: "bottom-80"}
	src, dst := hr.Repair(edge, component("a"), component("b"))
	assert.Equal(t, "top-20", src)
	assert.Equal(t, "bottom-80", dst)
}

func TestRepairReplacesStaleHandles(t *testing.T) {
	li := NewLayoutIndex()
	li.Place("a", model.Position{X: 0, Y: 0})
	li.Place("b", model.Position{X: 500, Y: 0})
	hr := NewHandleResolver(li)

	edge := model.Edge{SourceHandleID: "legacy-handle-3", TargetHandleID: "top-50"}
	src, dst := hr.Repair(edge, component("a"), component("b"))
	assert.Equal(t, "right-50", src)
	assert.Equal(t, "left-50", dst)
}

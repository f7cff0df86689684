package engine

import (
	"fmt"

	"botarena/server/geometry"
)

// WallID は壁の識別子です。壁の同一性は形状ではなくIDで判定します。
type WallID int

// WallSpec は設定から読み込む壁の定義です。ID が 0 の場合は並び順から採番します。
type WallSpec struct {
	ID            WallID
	X, Y          float64
	Width, Height float64
	Rotation      float64
	Color         string
}

// Wall はアリーナ内の静的な障害物です。
type Wall struct {
	ID           WallID
	Shape        geometry.Rect
	Color        string
	boundsRadius float64
}

// NewWall は壁を作成します。
func NewWall(id WallID, spec WallSpec) (*Wall, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("%w: wall %d has non-positive size %.1fx%.1f", ErrConfiguration, id, spec.Width, spec.Height)
	}
	shape := geometry.Rect{
		Center:   geometry.Point{X: spec.X, Y: spec.Y},
		Width:    spec.Width,
		Height:   spec.Height,
		Rotation: geometry.NormalizeAngle(spec.Rotation),
	}
	return &Wall{
		ID:           id,
		Shape:        shape,
		Color:        spec.Color,
		boundsRadius: shape.BoundsRadius(),
	}, nil
}

// BoundsRadius は外接円の半径です。
func (w *Wall) BoundsRadius() float64 {
	return w.boundsRadius
}

// Equal は2つの壁が同一かを返します。
func (w *Wall) Equal(other *Wall) bool {
	return other != nil && w.ID == other.ID
}

// BoundingCircle は外接円を返します。
func (w *Wall) BoundingCircle() (geometry.Point, float64) {
	return w.Shape.Center, w.boundsRadius
}

// IntersectsCircle は円が壁と交わるかを返します。
func (w *Wall) IntersectsCircle(center geometry.Point, radius float64) bool {
	reach := w.boundsRadius + radius
	if geometry.DistanceSq(w.Shape.Center, center) > reach*reach {
		return false
	}
	return w.Shape.IntersectsCircle(center, radius)
}

// IntersectsLine は線分が壁と交わるかを返します。
func (w *Wall) IntersectsLine(l geometry.Line) bool {
	return w.Shape.IntersectsLine(l)
}

func (w *Wall) colliderKind() ColliderKind { return ColliderWall }

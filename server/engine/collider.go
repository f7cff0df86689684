package engine

import "botarena/server/geometry"

// ColliderKind は衝突対象の種別です。
type ColliderKind uint8

const (
	ColliderBot ColliderKind = iota + 1
	ColliderWall
)

// Collider は衝突判定の対象が満たすインターフェースです。
// 外接円による粗い判定と形状ごとの厳密な判定を提供します。
type Collider interface {
	BoundingCircle() (geometry.Point, float64)
	IntersectsCircle(center geometry.Point, radius float64) bool
	IntersectsLine(l geometry.Line) bool
	colliderKind() ColliderKind
}

var (
	_ Collider = (*Wall)(nil)
	_ Collider = (*Bot)(nil)
)

// boundingCirclesOverlap は外接円同士が重なるかを返します。
func boundingCirclesOverlap(c Collider, center geometry.Point, radius float64) bool {
	cc, cr := c.BoundingCircle()
	reach := cr + radius
	return geometry.DistanceSq(cc, center) <= reach*reach
}

// hitsCircle は外接円で粗く判定してから厳密に判定します。
func hitsCircle(c Collider, center geometry.Point, radius float64) bool {
	if !boundingCirclesOverlap(c, center, radius) {
		return false
	}
	return c.IntersectsCircle(center, radius)
}

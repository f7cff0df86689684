package geometry

import "math"

// Point はアリーナ座標系の不変な2D点です。
type Point struct {
	X, Y float64
}

// Distance は2点間のユークリッド距離を返します。
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}

// DistanceSq は2点間の距離の2乗を返します。
func DistanceSq(p1, p2 Point) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return dx*dx + dy*dy
}

// DistanceTo は p から other までの距離を返します。
func (p Point) DistanceTo(other Point) float64 {
	return Distance(p, other)
}

// Translate は (dx, dy) だけ移動した点を返します。
func (p Point) Translate(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Line は2点を結ぶ線分です。
type Line struct {
	Start, End Point
}

// NewLine は座標から線分を作成します。
func NewLine(x1, y1, x2, y2 float64) Line {
	return Line{Start: Point{X: x1, Y: y1}, End: Point{X: x2, Y: y2}}
}

// Length は線分の長さを返します。
func (l Line) Length() float64 {
	return Distance(l.Start, l.End)
}

// cross は (b-a) x (c-a) の外積です。
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment は a, b, c が同一直線上にあるとき c が線分 ab の範囲内にあるかを返します。
func onSegment(a, b, c Point) bool {
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

// LineIntersectsLine は2つの線分が交差するかを返します。
// 端点を共有する場合や端点が相手の線分上にある場合も交差とみなします。
func LineIntersectsLine(a, b Line) bool {
	d1 := cross(b.Start, b.End, a.Start)
	d2 := cross(b.Start, b.End, a.End)
	d3 := cross(a.Start, a.End, b.Start)
	d4 := cross(a.Start, a.End, b.End)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(b.Start, b.End, a.Start):
		return true
	case d2 == 0 && onSegment(b.Start, b.End, a.End):
		return true
	case d3 == 0 && onSegment(a.Start, a.End, b.Start):
		return true
	case d4 == 0 && onSegment(a.Start, a.End, b.End):
		return true
	}
	return false
}

// PointInAxisAlignedRect は点が軸平行矩形 [left,right]x[top,bottom] の内部（境界含む）にあるかを返します。
func PointInAxisAlignedRect(p Point, left, right, top, bottom float64) bool {
	return p.X >= left && p.X <= right && p.Y >= top && p.Y <= bottom
}

// LineCircleIntersection は線分が円と交わる最初の点までの割合 t (0..1) を返します。
// 始点が円の内部にある場合は t=0 を返します。交わらない場合は false です。
func LineCircleIntersection(l Line, center Point, radius float64) (float64, bool) {
	dx := l.End.X - l.Start.X
	dy := l.End.Y - l.Start.Y
	fx := l.Start.X - center.X
	fy := l.Start.Y - center.Y

	c := fx*fx + fy*fy - radius*radius
	if c <= 0 {
		return 0, true
	}

	a := dx*dx + dy*dy
	if a == 0 {
		// 長さ0の線分は始点判定のみ
		return 0, false
	}
	b := 2 * (fx*dx + fy*dy)
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// LineIntersectsCircle は線分が円と交わるかを返します。
func LineIntersectsCircle(l Line, center Point, radius float64) bool {
	_, ok := LineCircleIntersection(l, center, radius)
	return ok
}

// NormalizeAngle は角度(度)を [0, 360) に正規化します。
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// NormalizeRelativeAngle は角度(度)を [-180, 180) に正規化します。
func NormalizeRelativeAngle(deg float64) float64 {
	deg = NormalizeAngle(deg)
	if deg >= 180 {
		deg -= 360
	}
	return deg
}

// Direction は from から to への方向(度)を返します。
func Direction(from, to Point) float64 {
	return NormalizeAngle(math.Atan2(to.Y-from.Y, to.X-from.X) * 180 / math.Pi)
}

// sinCos は度数の sin/cos を返します。90度の倍数は三角関数の誤差を避けて厳密値を返します。
func sinCos(deg float64) (sin, cos float64) {
	n := NormalizeAngle(deg)
	switch n {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	rad := n * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}

// Project は p から方向 deg に dist だけ進んだ点を返します。
func Project(p Point, deg, dist float64) Point {
	sin, cos := sinCos(deg)
	return Point{X: p.X + cos*dist, Y: p.Y + sin*dist}
}

package geometry

import "math"

// Sector は円の扇形領域です。From から反時計回りに Sweep 度だけ広がります。
// Sweep=0 の場合は From 方向の長さ Radius の線分として扱います。
type Sector struct {
	Center Point
	Radius float64
	From   float64
	Sweep  float64
}

// NewSector は開始角と終了角から扇形を作成します。start→end の回転量の符号で向きを決めます。
func NewSector(center Point, radius, start, end float64) Sector {
	delta := NormalizeRelativeAngle(end - start)
	if end-start >= 360 || end-start <= -360 {
		return Sector{Center: center, Radius: radius, From: NormalizeAngle(start), Sweep: 360}
	}
	if delta < 0 {
		return Sector{Center: center, Radius: radius, From: NormalizeAngle(end), Sweep: -delta}
	}
	return Sector{Center: center, Radius: radius, From: NormalizeAngle(start), Sweep: delta}
}

func (s Sector) containsAngle(deg float64) bool {
	if s.Sweep >= 360 {
		return true
	}
	return NormalizeAngle(deg-s.From) <= s.Sweep
}

func (s Sector) edges() (Line, Line) {
	return Line{Start: s.Center, End: Project(s.Center, s.From, s.Radius)},
		Line{Start: s.Center, End: Project(s.Center, s.From+s.Sweep, s.Radius)}
}

// ContainsPoint は点が扇形内部にあるかを返します。
func (s Sector) ContainsPoint(p Point) bool {
	if DistanceSq(s.Center, p) > s.Radius*s.Radius {
		return false
	}
	if p == s.Center {
		return true
	}
	return s.containsAngle(Direction(s.Center, p))
}

// IntersectsCircle は円が扇形と交わるかを返します。
func (s Sector) IntersectsCircle(center Point, radius float64) bool {
	reach := s.Radius + radius
	if DistanceSq(s.Center, center) > reach*reach {
		return false
	}
	if s.ContainsPoint(center) {
		return true
	}
	e1, e2 := s.edges()
	if LineIntersectsCircle(e1, center, radius) || LineIntersectsCircle(e2, center, radius) {
		return true
	}
	// 円弧部分との接触
	dir := Direction(s.Center, center)
	return s.containsAngle(dir) && Distance(s.Center, center)-radius <= s.Radius
}

// IntersectsRect は矩形が扇形と交わるかを返します。
func (s Sector) IntersectsRect(r Rect) bool {
	reach := s.Radius + r.BoundsRadius()
	if DistanceSq(s.Center, r.Center) > reach*reach {
		return false
	}
	if r.ContainsPoint(s.Center) || s.ContainsPoint(r.Center) {
		return true
	}
	for _, c := range r.Corners() {
		if s.ContainsPoint(c) {
			return true
		}
	}
	e1, e2 := s.edges()
	if r.IntersectsLine(e1) || r.IntersectsLine(e2) {
		return true
	}
	// 矩形上で中心に最も近い点
	if closest := r.ClosestPoint(s.Center); s.ContainsPoint(closest) {
		return true
	}
	// 矩形の辺が円弧を横切る場合
	corners := r.Corners()
	for i := range corners {
		edge := Line{Start: corners[i], End: corners[(i+1)%len(corners)]}
		for _, p := range circleCrossings(edge, s.Center, s.Radius) {
			if s.containsAngle(Direction(s.Center, p)) {
				return true
			}
		}
	}
	return false
}

// circleCrossings は線分と円周の交点を返します。
func circleCrossings(l Line, center Point, radius float64) []Point {
	dx := l.End.X - l.Start.X
	dy := l.End.Y - l.Start.Y
	fx := l.Start.X - center.X
	fy := l.Start.Y - center.Y
	a := dx*dx + dy*dy
	if a == 0 {
		return nil
	}
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	var out []Point
	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t >= 0 && t <= 1 {
			out = append(out, Point{X: l.Start.X + t*dx, Y: l.Start.Y + t*dy})
		}
	}
	return out
}

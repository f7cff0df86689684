package geometry

import "math"

// Rect は中心・サイズ・回転(度)で表される向き付き矩形です。
// 判定はすべて、点を -center だけ平行移動し -rotation だけ回転したローカル座標系で
// 軸平行矩形として行います。
type Rect struct {
	Center   Point
	Width    float64
	Height   float64
	Rotation float64
}

// BoundsRadius は外接円の半径（対角線の半分）を返します。
func (r Rect) BoundsRadius() float64 {
	return math.Hypot(r.Width/2, r.Height/2)
}

// ToLocal はワールド座標の点を矩形のローカル座標系に変換します。
func (r Rect) ToLocal(p Point) Point {
	tx := p.X - r.Center.X
	ty := p.Y - r.Center.Y
	sin, cos := sinCos(-r.Rotation)
	return Point{
		X: tx*cos - ty*sin,
		Y: tx*sin + ty*cos,
	}
}

// ToWorld はローカル座標の点をワールド座標に戻します。
func (r Rect) ToWorld(p Point) Point {
	sin, cos := sinCos(r.Rotation)
	return Point{
		X: p.X*cos - p.Y*sin + r.Center.X,
		Y: p.X*sin + p.Y*cos + r.Center.Y,
	}
}

func (r Rect) halfExtents() (float64, float64) {
	return r.Width / 2, r.Height / 2
}

// ContainsPoint は点が矩形内部（境界含む）にあるかを返します。
func (r Rect) ContainsPoint(p Point) bool {
	hw, hh := r.halfExtents()
	return PointInAxisAlignedRect(r.ToLocal(p), -hw, hw, -hh, hh)
}

// IntersectsLine は線分が矩形と交わるかを返します。
// いずれかの端点が内部にあるか、ローカル座標系の線分が4辺のいずれかと交差すれば true です。
func (r Rect) IntersectsLine(l Line) bool {
	p1 := r.ToLocal(l.Start)
	p2 := r.ToLocal(l.End)
	hw, hh := r.halfExtents()

	if PointInAxisAlignedRect(p1, -hw, hw, -hh, hh) || PointInAxisAlignedRect(p2, -hw, hw, -hh, hh) {
		return true
	}

	local := Line{Start: p1, End: p2}
	for _, edge := range localEdges(hw, hh) {
		if LineIntersectsLine(local, edge) {
			return true
		}
	}
	return false
}

// IntersectsCircle は円が矩形と交わるかを返します。
// ローカル座標系の中心を矩形範囲にクランプした最近点との距離の2乗が radius² 以下なら true です。
func (r Rect) IntersectsCircle(center Point, radius float64) bool {
	local := r.ToLocal(center)
	hw, hh := r.halfExtents()
	closestX := clamp(local.X, -hw, hw)
	closestY := clamp(local.Y, -hh, hh)
	dx := local.X - closestX
	dy := local.Y - closestY
	return dx*dx+dy*dy <= radius*radius
}

// ClosestPoint は矩形（内部含む）上で p に最も近い点を返します。
func (r Rect) ClosestPoint(p Point) Point {
	local := r.ToLocal(p)
	hw, hh := r.halfExtents()
	return r.ToWorld(Point{X: clamp(local.X, -hw, hw), Y: clamp(local.Y, -hh, hh)})
}

// PushOutCircle は円が矩形に接する位置まで押し出した中心座標を返します。
// 交わっていない場合は center をそのまま返します。
func (r Rect) PushOutCircle(center Point, radius float64) Point {
	if !r.IntersectsCircle(center, radius) {
		return center
	}
	local := r.ToLocal(center)
	hw, hh := r.halfExtents()
	closestX := clamp(local.X, -hw, hw)
	closestY := clamp(local.Y, -hh, hh)
	dx := local.X - closestX
	dy := local.Y - closestY
	dist := math.Hypot(dx, dy)

	var out Point
	if dist > 0 {
		// 外側: 最近点からの法線方向に押し出す
		out = Point{
			X: closestX + dx/dist*radius,
			Y: closestY + dy/dist*radius,
		}
	} else {
		// 中心が内部: 最も近い辺から押し出す
		left := local.X + hw
		right := hw - local.X
		top := local.Y + hh
		bottom := hh - local.Y
		out = local
		switch math.Min(math.Min(left, right), math.Min(top, bottom)) {
		case left:
			out.X = -hw - radius
		case right:
			out.X = hw + radius
		case top:
			out.Y = -hh - radius
		default:
			out.Y = hh + radius
		}
	}
	return r.ToWorld(out)
}

// Corners は矩形の4頂点をワールド座標で返します。
func (r Rect) Corners() [4]Point {
	hw, hh := r.halfExtents()
	return [4]Point{
		r.ToWorld(Point{X: -hw, Y: -hh}),
		r.ToWorld(Point{X: hw, Y: -hh}),
		r.ToWorld(Point{X: hw, Y: hh}),
		r.ToWorld(Point{X: -hw, Y: hh}),
	}
}

func localEdges(hw, hh float64) [4]Line {
	return [4]Line{
		NewLine(-hw, -hh, -hw, hh), // 左
		NewLine(hw, -hh, hw, hh),   // 右
		NewLine(-hw, -hh, hw, -hh), // 上
		NewLine(-hw, hh, hw, hh),   // 下
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

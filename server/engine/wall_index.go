package engine

import (
	"slices"

	"botarena/server/geometry"

	"github.com/dhconnelly/rtreego"
)

// 境界ボックスが幅0にならないための余白
const indexPadding = 0.005

type wallEntry struct {
	wall *Wall
	bb   rtreego.Rect
}

func (e *wallEntry) Bounds() rtreego.Rect {
	return e.bb
}

// wallIndex は壁の外接円の境界ボックスを R-tree に格納した空間インデックスです。
// 衝突判定の粗い絞り込みに使います。
type wallIndex struct {
	tree *rtreego.Rtree
}

func newWallIndex(walls []*Wall) (*wallIndex, error) {
	spatials := make([]rtreego.Spatial, 0, len(walls))
	for _, w := range walls {
		bb, err := boundingBox(w.Shape.Center, w.Shape.Center, w.boundsRadius)
		if err != nil {
			return nil, err
		}
		spatials = append(spatials, &wallEntry{wall: w, bb: bb})
	}
	return &wallIndex{tree: rtreego.NewTree(2, 2, 8, spatials...)}, nil
}

// boundingBox は半径 radius の円が from から to へ移動する範囲を囲む矩形を返します。
func boundingBox(from, to geometry.Point, radius float64) (rtreego.Rect, error) {
	minX := min(from.X, to.X) - radius - indexPadding
	minY := min(from.Y, to.Y) - radius - indexPadding
	maxX := max(from.X, to.X) + radius + indexPadding
	maxY := max(from.Y, to.Y) + radius + indexPadding
	return rtreego.NewRect(rtreego.Point{minX, minY}, []float64{maxX - minX, maxY - minY})
}

// search は境界ボックスが交わる壁をID順に返します。
func (ix *wallIndex) search(from, to geometry.Point, radius float64) []*Wall {
	if ix.tree.Size() == 0 {
		return nil
	}
	bb, err := boundingBox(from, to, radius)
	if err != nil {
		return nil
	}
	found := ix.tree.SearchIntersect(bb)
	walls := make([]*Wall, 0, len(found))
	for _, s := range found {
		walls = append(walls, s.(*wallEntry).wall)
	}
	slices.SortFunc(walls, func(a, b *Wall) int { return int(a.ID) - int(b.ID) })
	return walls
}

func (ix *wallIndex) nearCircle(center geometry.Point, radius float64) []*Wall {
	return ix.search(center, center, radius)
}

func (ix *wallIndex) nearLine(l geometry.Line) []*Wall {
	return ix.search(l.Start, l.End, 0)
}

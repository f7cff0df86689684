package engine

import "botarena/server/geometry"

// BulletID はバトル内で一意な弾のIDです。
type BulletID int

// Bullet は飛行中の弾です。
type Bullet struct {
	ID        BulletID
	OwnerID   BotID
	Power     float64
	Direction float64
	Speed     float64
	Position  geometry.Point
	SpawnTick int
}

func newBullet(id BulletID, owner *Bot, power float64, tick int) *Bullet {
	return &Bullet{
		ID:        id,
		OwnerID:   owner.ID,
		Power:     power,
		Direction: owner.GunDirection,
		Speed:     CalcBulletSpeed(power),
		Position:  owner.Position,
		SpawnTick: tick,
	}
}

// Damage は命中時のダメージです。
func (b *Bullet) Damage() float64 {
	return CalcBulletDamage(b.Power)
}

// advance は弾を1ティック分進め、移動した線分を返します。
func (b *Bullet) advance() geometry.Line {
	start := b.Position
	b.Position = geometry.Project(start, b.Direction, b.Speed)
	return geometry.Line{Start: start, End: b.Position}
}

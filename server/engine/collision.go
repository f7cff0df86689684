package engine

import (
	"math"

	"botarena/server/geometry"
	"botarena/utils"
)

// arenaBoundaryID は HitWallEvent / BulletHitWallEvent でアリーナ境界を表すIDです。
const arenaBoundaryID WallID = 0

// maxWallPasses は押し出し直しを繰り返す上限です。
const maxWallPasses = 4

// resolveBotWallCollisions はボットと壁・アリーナ境界の衝突を解決します。
func (a *Arena) resolveBotWallCollisions(out *tickOutcome) {
	r := a.rules.BotRadius
	for _, b := range a.aliveBots() {
		for _, w := range a.wallIndex.search(b.startPosition, b.Position, r) {
			if !hitsCircle(w, b.Position, r) {
				continue
			}
			b.Position = a.recoverFromWall(b, w)
			b.Speed = 0
			out.emit(HitWallEvent{TurnNumber: out.tick, BotID: b.ID, WallID: w.ID})
		}
		// 押し出した先で別の壁に重なっていないか確かめ直す
		if a.collidesWithWall(b.Position) {
			b.Position = a.pushOutOfWalls(b.Position)
		}
		if clamped := a.clampToArena(b.Position); clamped != b.Position {
			b.Position = a.settle(clamped)
			b.Speed = 0
			out.emit(HitWallEvent{TurnNumber: out.tick, BotID: b.ID, WallID: arenaBoundaryID})
		}
	}
}

func (a *Arena) recoverFromWall(b *Bot, w *Wall) geometry.Point {
	r := a.rules.BotRadius
	if a.rules.WallRecovery == WallRecoveryClamp && !a.collidesWithWall(b.startPosition) {
		return b.startPosition
	}
	return w.Shape.PushOutCircle(b.Position, r)
}

// pushOutOfWalls は重なっている壁がなくなるまで外接円を押し出します。
func (a *Arena) pushOutOfWalls(p geometry.Point) geometry.Point {
	r := a.rules.BotRadius
	for range maxWallPasses {
		moved := false
		for _, w := range a.wallIndex.nearCircle(p, r) {
			if hitsCircle(w, p, r) {
				p = w.Shape.PushOutCircle(p, r)
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return p
}

// settle は壁とアリーナ境界のどちらにも重ならない位置まで p を動かします。
func (a *Arena) settle(p geometry.Point) geometry.Point {
	for range maxWallPasses {
		next := a.clampToArena(a.pushOutOfWalls(p))
		if next == p {
			break
		}
		p = next
	}
	return p
}

func (a *Arena) collidesWithWall(p geometry.Point) bool {
	r := a.rules.BotRadius
	for _, w := range a.wallIndex.nearCircle(p, r) {
		if hitsCircle(w, p, r) {
			return true
		}
	}
	return false
}

func (a *Arena) clampToArena(p geometry.Point) geometry.Point {
	r := a.rules.BotRadius
	return geometry.Point{
		X: utils.Clamp(p.X, r, a.rules.ArenaWidth-r),
		Y: utils.Clamp(p.Y, r, a.rules.ArenaHeight-r),
	}
}

// resolveBotCollisions はボット同士の重なりを解決します。
// 重なった2台は両方とも RamDamage を受けて停止し、接する距離まで押し離されます。
func (a *Arena) resolveBotCollisions(out *tickOutcome) {
	bots := a.aliveBots()
	minDist := 2 * a.rules.BotRadius
	for i := 0; i < len(bots); i++ {
		for j := i + 1; j < len(bots); j++ {
			b1, b2 := bots[i], bots[j]
			if geometry.Distance(b1.Position, b2.Position) >= minDist {
				continue
			}
			ram1 := isRamming(b1, b2)
			ram2 := isRamming(b2, b1)
			killed2 := b2.damage(a.rules.RamDamage)
			killed1 := b1.damage(a.rules.RamDamage)
			if ram1 {
				out.damages = append(out.damages, ramDamage(b1, b2, a.rules.RamDamage, killed2))
			}
			if ram2 {
				out.damages = append(out.damages, ramDamage(b2, b1, a.rules.RamDamage, killed1))
			}
			b1.Speed = 0
			b2.Speed = 0
			a.separate(b1, b2, minDist)

			out.emit(HitBotEvent{TurnNumber: out.tick, BotID: b1.ID, VictimID: b2.ID, X: b2.Position.X, Y: b2.Position.Y, Energy: b2.Energy, Rammed: ram1})
			out.emit(HitBotEvent{TurnNumber: out.tick, BotID: b2.ID, VictimID: b1.ID, X: b1.Position.X, Y: b1.Position.Y, Energy: b1.Energy, Rammed: ram2})
		}
	}
}

// isRamming は b がこのティックに other の方向へ進んでいたかを返します。
func isRamming(b, other *Bot) bool {
	if b.tickSpeed == 0 {
		return false
	}
	v := geometry.Project(geometry.Point{}, b.moveDirection, b.tickSpeed)
	dx := other.Position.X - b.Position.X
	dy := other.Position.Y - b.Position.Y
	return v.X*dx+v.Y*dy > 0
}

func ramDamage(attacker, victim *Bot, amount float64, killed bool) Damage {
	return Damage{
		Kind:        DamageRam,
		Attacker:    attacker.Participant,
		AttackerBot: attacker.ID,
		Victim:      victim.Participant,
		VictimBot:   victim.ID,
		Amount:      amount,
		Killed:      killed,
	}
}

// separationTolerance は押し離した後の距離の許容誤差です。
const separationTolerance = 1e-9

// separate は2台の中心間距離が dist になるよう中心線に沿って押し離します。
// 壁やアリーナ境界に押し付けられて動けない側の不足分はもう一方が受け持ちます。
func (a *Arena) separate(b1, b2 *Bot, dist float64) {
	d := geometry.Distance(b1.Position, b2.Position)
	nx, ny := 1.0, 0.0
	if d > 0 {
		nx = (b2.Position.X - b1.Position.X) / d
		ny = (b2.Position.Y - b1.Position.Y) / d
	}
	mid := geometry.Point{
		X: (b1.Position.X + b2.Position.X) / 2,
		Y: (b1.Position.Y + b2.Position.Y) / 2,
	}
	half := dist / 2
	b1.Position = a.settle(geometry.Point{X: mid.X - nx*half, Y: mid.Y - ny*half})
	b2.Position = a.settle(geometry.Point{X: mid.X + nx*half, Y: mid.Y + ny*half})

	if gap := dist - geometry.Distance(b1.Position, b2.Position); gap > separationTolerance {
		b2.Position = a.settle(b2.Position.Translate(nx*gap, ny*gap))
	}
	if gap := dist - geometry.Distance(b1.Position, b2.Position); gap > separationTolerance {
		b1.Position = a.settle(b1.Position.Translate(-nx*gap, -ny*gap))
	}
}

// resolveBulletWallCollisions は壁またはアリーナ境界に当たった弾を取り除き、残った弾の移動を返します。
func (a *Arena) resolveBulletWallCollisions(travels []bulletTravel, out *tickOutcome) []bulletTravel {
	remaining := travels[:0]
	for _, t := range travels {
		if id, hit := a.bulletHitsWall(t.path); hit {
			a.removeBullet(t.bullet.ID)
			out.emit(BulletHitWallEvent{TurnNumber: out.tick, Bullet: t.bullet.state(), WallID: id})
			continue
		}
		remaining = append(remaining, t)
	}
	return remaining
}

func (a *Arena) bulletHitsWall(path geometry.Line) (WallID, bool) {
	for _, w := range a.wallIndex.nearLine(path) {
		if w.IntersectsLine(path) {
			return w.ID, true
		}
	}
	p := path.End
	if p.X < 0 || p.X > a.rules.ArenaWidth || p.Y < 0 || p.Y > a.rules.ArenaHeight {
		return arenaBoundaryID, true
	}
	return 0, false
}

// resolveBulletBotCollisions は弾の移動線分とボットの外接円の交差を判定します。
// 1発の弾は移動線分上で最も手前のボット1台にだけ命中します。
func (a *Arena) resolveBulletBotCollisions(travels []bulletTravel, out *tickOutcome) {
	r := a.rules.BotRadius
	for _, t := range travels {
		var target *Bot
		nearest := math.Inf(1)
		for _, b := range a.bots {
			if !b.Alive || b.Energy <= 0 || b.ID == t.bullet.OwnerID {
				continue
			}
			if !boundingCirclesOverlap(b, t.path.Start, t.path.Length()) {
				continue
			}
			at, ok := geometry.LineCircleIntersection(t.path, b.Position, r)
			if ok && at < nearest {
				nearest = at
				target = b
			}
		}
		if target == nil {
			continue
		}

		damage := t.bullet.Damage()
		killed := target.damage(damage)
		owner := a.botByID[t.bullet.OwnerID]
		if owner.Alive && owner.Energy > 0 {
			owner.Energy += t.bullet.Power * a.rules.BulletHitEnergyGainFactor
		}
		out.damages = append(out.damages, Damage{
			Kind:        DamageBullet,
			Attacker:    owner.Participant,
			AttackerBot: owner.ID,
			Victim:      target.Participant,
			VictimBot:   target.ID,
			Amount:      damage,
			Killed:      killed,
		})
		a.removeBullet(t.bullet.ID)
		out.emit(BulletHitBotEvent{
			TurnNumber: out.tick,
			Bullet:     t.bullet.state(),
			VictimID:   target.ID,
			Damage:     damage,
			Energy:     target.Energy,
		})
	}
}

func (a *Arena) removeBullet(id BulletID) {
	for i, b := range a.bullets {
		if b.ID == id {
			a.bullets = append(a.bullets[:i], a.bullets[i+1:]...)
			return
		}
	}
}

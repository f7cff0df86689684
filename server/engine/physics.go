package engine

import (
	"math"

	"botarena/server/geometry"
)

// nextSpeed は現在の速度から目標速度へ1ティック分だけ近づけた速度を返します。
// 減速中に0を跨ぐ場合、残りの時間は加速として扱います。
func (r Rules) nextSpeed(speed, target float64) float64 {
	target = math.Max(r.MaxBackwardSpeed, math.Min(r.MaxForwardSpeed, target))
	delta := target - speed
	var step float64
	if speed >= 0 {
		if delta >= 0 {
			step = math.Min(delta, r.Acceleration)
		} else {
			step = math.Max(delta, -r.maxDeceleration(speed))
		}
	} else {
		if delta <= 0 {
			step = math.Max(delta, -r.Acceleration)
		} else {
			step = math.Min(delta, r.maxDeceleration(-speed))
		}
	}
	return math.Max(r.MaxBackwardSpeed, math.Min(r.MaxForwardSpeed, speed+step))
}

func (r Rules) maxDeceleration(speed float64) float64 {
	decelTime := speed / -r.Deceleration
	accelTime := 1 - decelTime
	return math.Min(1, decelTime)*-r.Deceleration + math.Max(0, accelTime)*r.Acceleration
}

// moveBots は全ボットの速度・位置・向き・砲身の熱量を更新し、エネルギーの減衰を適用します。
// 他のボットとの重なりはここでは解決しません。
func (a *Arena) moveBots(intents map[BotID]Intent) {
	for _, b := range a.aliveBots() {
		var in Intent
		if !b.disconnected {
			in = intents[b.ID]
		}
		in = in.sanitize(a.rules, b.Speed)
		a.moveBot(b, in)
	}
}

func (a *Arena) moveBot(b *Bot, in Intent) {
	b.startPosition = b.Position
	b.Speed = a.rules.nextSpeed(b.Speed, in.TargetSpeed)
	b.tickSpeed = b.Speed
	b.moveDirection = b.Direction
	b.Position = geometry.Project(b.Position, b.Direction, b.Speed)

	gunTurn := in.GunTurnRate
	if !in.AdjustGunForBodyTurn {
		gunTurn += in.TurnRate
	}
	radarTurn := in.RadarTurnRate
	if !in.AdjustRadarForGunTurn {
		radarTurn += gunTurn
	}
	b.prevRadarDirection = b.RadarDirection
	b.Direction = geometry.NormalizeAngle(b.Direction + in.TurnRate)
	b.GunDirection = geometry.NormalizeAngle(b.GunDirection + gunTurn)
	b.RadarDirection = geometry.NormalizeAngle(b.RadarDirection + radarTurn)
	b.TurnRate = in.TurnRate
	b.GunTurnRate = in.GunTurnRate
	b.RadarTurnRate = in.RadarTurnRate

	b.GunHeat = math.Max(0, b.GunHeat-a.rules.GunCoolingRate)
	b.firepower = in.Firepower

	a.applyPenalties(b, in)
	a.queueTeamMessages(b, in.TeamMessages)
}

func (a *Arena) applyPenalties(b *Bot, in Intent) {
	var drain float64
	if b.Speed != 0 {
		drain -= a.rules.MovementPenalty
	}
	if in.TurnRate != 0 {
		drain -= a.rules.TurnAroundPenalty
	}
	if in.RadarTurnRate != 0 {
		drain -= a.rules.RadarPenalty
	}

	active := b.Speed != 0 || in.TurnRate != 0 || in.GunTurnRate != 0 ||
		in.RadarTurnRate != 0 || in.Firepower > 0
	if active {
		b.idleTicks = 0
	} else {
		b.idleTicks++
	}
	if a.rules.InactivityTicks > 0 && b.idleTicks >= a.rules.InactivityTicks {
		drain += a.rules.InactivityDamage
	}
	if drain > 0 {
		b.damage(drain)
	}
}

// fireBullets は発射指示があり砲身が冷えているボットの弾を生成します。
// 弾は次のティックから移動します。
func (a *Arena) fireBullets(out *tickOutcome) {
	for _, b := range a.aliveBots() {
		if b.firepower <= 0 || b.Energy <= 0 || b.GunHeat > 0 {
			continue
		}
		power := math.Min(b.firepower, b.Energy)
		b.Energy -= power
		b.GunHeat = CalcGunHeat(power)
		a.nextBulletID++
		bullet := newBullet(a.nextBulletID, b, power, out.tick)
		a.bullets = append(a.bullets, bullet)
		out.emit(BulletFiredEvent{TurnNumber: out.tick, Bullet: bullet.state()})
	}
}

type bulletTravel struct {
	bullet *Bullet
	path   geometry.Line
}

// moveBullets は前のティックまでに発射された弾を進めます。
func (a *Arena) moveBullets() []bulletTravel {
	travels := make([]bulletTravel, 0, len(a.bullets))
	for _, b := range a.bullets {
		travels = append(travels, bulletTravel{bullet: b, path: b.advance()})
	}
	return travels
}

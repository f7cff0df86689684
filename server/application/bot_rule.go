package application

import (
	"math"
	"math/rand/v2"

	"botarena/server/domain"
	"botarena/server/engine"
	"botarena/server/geometry"
	"botarena/utils"
)

const (
	botWallMargin   float64 = 60   // 壁際から中央に戻り始める距離
	botAimTolerance float64 = 3    // 発射を許す砲身のずれ(度)
	botTargetMemory int     = 8    // 見失った敵を覚えておくティック数
	rushChance      float64 = 0.02 // 毎tick 2% の確率で突撃
)

// RuleBotController はルールベースのボットAIです。
// ボットごとに異なる個性パラメータを持ちます。
type RuleBotController struct {
	CloseRange float64 // 後退を始める距離
	MidRange   float64 // ストレイフを始める距離
	StrafeSign float64 // +1: 反時計回り, -1: 時計回り

	rng *rand.Rand

	target     *engine.BotID
	targetPos  geometry.Point
	targetSeen int
}

// NewRuleBotController はランダムな個性を持つボットAIを生成します。
func NewRuleBotController(rng *rand.Rand) *RuleBotController {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	strafeSign := 1.0
	if rng.Float64() < 0.5 {
		strafeSign = -1.0
	}
	return &RuleBotController{
		CloseRange: 100 + rng.Float64()*100, // 100〜200
		MidRange:   300 + rng.Float64()*200, // 300〜500
		StrafeSign: strafeSign,
		rng:        rng,
	}
}

// Decide はティック情報から次のティックの指示を決めます。
func (r *RuleBotController) Decide(msg *BotTickMessage) domain.IntentPayload {
	intent := domain.IntentPayload{Turn: uint32(msg.Tick + 1)}
	self := msg.Self
	if !self.Alive {
		return intent
	}
	pos := geometry.Point{X: self.X, Y: self.Y}
	r.observe(msg)

	// 被弾したらストレイフ方向を反転
	for _, ev := range msg.Events {
		if ev.Type == engine.EventBulletHitBot.String() && ev.VictimID == self.ID {
			r.StrafeSign = -r.StrafeSign
		}
	}

	if r.target == nil {
		// 敵を探してレーダーを回す
		intent.RadarTurnRate = engine.MaxRadarTurnRate
		intent.TargetSpeed = engine.MaxForwardSpeed / 2
		intent.TurnRate = r.avoidWalls(msg, pos, self.Direction, 0)
		return intent
	}

	bearing := geometry.Direction(pos, r.targetPos)
	dist := pos.DistanceTo(r.targetPos)

	// レーダーは敵を少し越えて振り、毎ティック捕捉し直す
	radarTurn := geometry.NormalizeRelativeAngle(bearing - self.RadarDirection)
	radarTurn += math.Copysign(engine.MaxRadarTurnRate/4, radarTurn)
	intent.RadarTurnRate = utils.Clamp(radarTurn, -engine.MaxRadarTurnRate, engine.MaxRadarTurnRate)
	intent.AdjustRadarForGunTurn = true

	gunTurn := geometry.NormalizeRelativeAngle(bearing - self.GunDirection)
	intent.GunTurnRate = utils.Clamp(gunTurn, -engine.MaxGunTurnRate, engine.MaxGunTurnRate)
	intent.AdjustGunForBodyTurn = true
	if self.GunHeat == 0 && math.Abs(gunTurn) <= botAimTolerance {
		intent.Firepower = firepowerFor(dist, self.Energy)
	}

	// ランダム突撃: 一定確率で距離に関係なく接近
	var heading float64
	switch {
	case r.rng.Float64() < rushChance:
		heading = bearing
		intent.TargetSpeed = engine.MaxForwardSpeed
	case dist < r.CloseRange:
		// 近距離: 後退
		heading = bearing
		intent.TargetSpeed = engine.MaxBackwardSpeed
	case dist < r.MidRange:
		// 中距離: 横移動（ストレイフ方向はボットごとに異なる）
		heading = bearing + 90*r.StrafeSign
		intent.TargetSpeed = engine.MaxForwardSpeed
	default:
		// 遠距離: 接近
		heading = bearing
		intent.TargetSpeed = engine.MaxForwardSpeed
	}
	intent.TurnRate = r.avoidWalls(msg, pos, self.Direction, geometry.NormalizeRelativeAngle(heading-self.Direction))
	return intent
}

// observe は自分のスキャン結果から追跡する敵を更新します。
func (r *RuleBotController) observe(msg *BotTickMessage) {
	nearest := math.MaxFloat64
	pos := geometry.Point{X: msg.Self.X, Y: msg.Self.Y}
	for _, ev := range msg.Events {
		switch ev.Type {
		case engine.EventScannedBot.String():
			if ev.ScannedByBotID != msg.Self.ID || ev.ScannedBotID == msg.Self.ID {
				continue
			}
			p := geometry.Point{X: ev.X, Y: ev.Y}
			if d := pos.DistanceTo(p); d < nearest {
				nearest = d
				id := ev.ScannedBotID
				r.target = &id
				r.targetPos = p
				r.targetSeen = msg.Tick
			}
		case engine.EventBotDeath.String():
			if r.target != nil && *r.target == ev.VictimID {
				r.target = nil
			}
		}
	}
	if r.target != nil && msg.Tick-r.targetSeen > botTargetMemory {
		r.target = nil
	}
}

// avoidWalls は壁際では中央に向かう旋回を、それ以外は turn をそのまま返します。
func (r *RuleBotController) avoidWalls(msg *BotTickMessage, pos geometry.Point, direction, turn float64) float64 {
	if pos.X < botWallMargin || pos.Y < botWallMargin ||
		pos.X > msg.Width-botWallMargin || pos.Y > msg.Height-botWallMargin {
		center := geometry.Point{X: msg.Width / 2, Y: msg.Height / 2}
		turn = geometry.NormalizeRelativeAngle(geometry.Direction(pos, center) - direction)
	}
	return utils.Clamp(turn, -engine.MaxTurnRate, engine.MaxTurnRate)
}

// firepowerFor は距離が近いほど強い弾を選びます。エネルギーが尽きる強さでは撃ちません。
func firepowerFor(dist, energy float64) float64 {
	var power float64
	switch {
	case dist < 150:
		power = engine.MaxFirepower
	case dist < 400:
		power = 2
	default:
		power = 1
	}
	if power >= energy {
		power = math.Max(0, energy-engine.MinFirepower)
	}
	if power < engine.MinFirepower {
		return 0
	}
	return power
}

package engine

import (
	"math"

	"botarena/server/geometry"
	"botarena/utils"
)

// Intent はボットが1ティックごとに送る行動指示です。
// 範囲外の値は拒否せずにクランプします。
type Intent struct {
	TurnRate      float64
	GunTurnRate   float64
	RadarTurnRate float64
	TargetSpeed   float64
	Firepower     float64

	// AdjustGunForBodyTurn が true の場合、砲塔は車体の旋回に追従しません。
	AdjustGunForBodyTurn bool
	// AdjustRadarForGunTurn が true の場合、レーダーは砲塔の旋回に追従しません。
	AdjustRadarForGunTurn bool

	TeamMessages []TeamMessage
}

// TeamMessage はチームメイト宛てのメッセージです。ReceiverID が 0 の場合はチーム全員宛てです。
type TeamMessage struct {
	ReceiverID BotID
	Payload    []byte
}

// Bot はアリーナ上のボットの状態です。
type Bot struct {
	ID          BotID
	Name        string
	TeamID      TeamID
	Participant ParticipantID

	Position       geometry.Point
	Direction      float64
	GunDirection   float64
	RadarDirection float64
	Speed          float64
	Energy         float64
	GunHeat        float64

	// 直近ティックで適用された旋回速度
	TurnRate      float64
	GunTurnRate   float64
	RadarTurnRate float64

	Alive bool

	radius              float64
	startPosition       geometry.Point
	prevRadarDirection  float64
	tickSpeed           float64
	moveDirection       float64
	firepower           float64
	idleTicks           int
	disconnected        bool
	disconnectedTicks   int
	pendingTeamMessages []TeamMessage
}

func newBot(id BotID, name string, team TeamID, participant ParticipantID, pos geometry.Point, dir float64, rules Rules) *Bot {
	dir = geometry.NormalizeAngle(dir)
	return &Bot{
		ID:                 id,
		Name:               name,
		TeamID:             team,
		Participant:        participant,
		Position:           pos,
		Direction:          dir,
		GunDirection:       dir,
		RadarDirection:     dir,
		Energy:             rules.InitialBotEnergy,
		GunHeat:            rules.InitialGunHeat,
		Alive:              true,
		radius:             rules.BotRadius,
		startPosition:      pos,
		prevRadarDirection: dir,
	}
}

// BoundingCircle は外接円を返します。
func (b *Bot) BoundingCircle() (geometry.Point, float64) {
	return b.Position, b.radius
}

// IntersectsCircle は円がボットと交わるかを返します。
func (b *Bot) IntersectsCircle(center geometry.Point, radius float64) bool {
	reach := b.radius + radius
	return geometry.DistanceSq(b.Position, center) <= reach*reach
}

// IntersectsLine は線分がボットと交わるかを返します。
func (b *Bot) IntersectsLine(l geometry.Line) bool {
	return geometry.LineIntersectsCircle(l, b.Position, b.radius)
}

func (b *Bot) colliderKind() ColliderKind { return ColliderBot }

// IsTeammate は other が同じチームに属するかを返します。
func (b *Bot) IsTeammate(other *Bot) bool {
	return b.TeamID != 0 && b.TeamID == other.TeamID
}

// damage はエネルギーを減らし、このダメージで撃破されたかを返します。
func (b *Bot) damage(amount float64) (killed bool) {
	wasAlive := b.Energy > 0
	b.Energy = math.Max(0, b.Energy-amount)
	return wasAlive && b.Energy <= 0
}

// sanitize は非有限値を0に置き換え、各値をルールの範囲にクランプします。
func (in Intent) sanitize(rules Rules, speed float64) Intent {
	out := in
	maxTurn := rules.MaxTurnRateAt(speed)
	out.TurnRate = utils.Clamp(utils.Finite(in.TurnRate), -maxTurn, maxTurn)
	out.GunTurnRate = utils.Clamp(utils.Finite(in.GunTurnRate), -rules.MaxGunTurnRate, rules.MaxGunTurnRate)
	out.RadarTurnRate = utils.Clamp(utils.Finite(in.RadarTurnRate), -rules.MaxRadarTurnRate, rules.MaxRadarTurnRate)
	out.TargetSpeed = utils.Clamp(utils.Finite(in.TargetSpeed), rules.MaxBackwardSpeed, rules.MaxForwardSpeed)

	power := utils.Finite(in.Firepower)
	switch {
	case power <= 0:
		out.Firepower = 0
	default:
		out.Firepower = utils.Clamp(power, rules.MinFirepower, rules.MaxFirepower)
	}
	return out
}

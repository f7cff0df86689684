package engine

import (
	"errors"
	"fmt"
	"math"
)

// ルール定数のデフォルト値
const (
	ArenaMinSize = 400
	ArenaMaxSize = 5000

	MinGunCoolingRate = 0.1
	MaxGunCoolingRate = 3.0

	InitialBotEnergy = 300.0
	InitialGunHeat   = 3.0

	BotBoundingCircleDiameter = 36
	BotBoundingCircleRadius   = BotBoundingCircleDiameter / 2.0

	RadarRadius = 1200.0

	MaxTurnRate      = 10.0
	MaxGunTurnRate   = 20.0
	MaxRadarTurnRate = 45.0

	MaxForwardSpeed  = 8.0
	MaxBackwardSpeed = -8.0

	MinFirepower = 0.1
	MaxFirepower = 3.0

	Acceleration = 1.0
	Deceleration = -2.0

	RamDamage                 = 3.0
	BulletHitEnergyGainFactor = 3.0

	ScorePerSurvival     = 20.0
	BonusPerLastSurvivor = 20.0
	ScorePerBulletDamage = 2.0
	BonusPerBulletKill   = 0.6
	ScorePerRamDamage    = 4.0
	BonusPerRamKill      = 0.6

	InactivityDamage = 3.0

	MaxTeamMessageSize             = 4096
	MaxNumberOfTeamMessagesPerTurn = 5

	MovementPenalty   = -0.05
	RadarPenalty      = -0.02
	TurnAroundPenalty = -0.03

	// TurnRateSpeedFactor は速度1あたりの最大旋回速度の減少量です。
	TurnRateSpeedFactor = 0.75

	DefaultInactivityTicks     = 450
	DefaultSurvivalPeriodTicks = 1000
	DefaultDisconnectGrace     = 30
)

// ErrConfiguration はバトル開始前に検出される設定エラーです。
var ErrConfiguration = errors.New("configuration error")

// WallRecovery はボットが壁にめり込んだときの復帰方法です。
type WallRecovery uint8

const (
	// WallRecoveryClamp はティック開始時の位置に戻します。
	WallRecoveryClamp WallRecovery = iota
	// WallRecoveryProject は壁の法線方向に押し出します。
	WallRecoveryProject
)

func (w WallRecovery) String() string {
	switch w {
	case WallRecoveryClamp:
		return "clamp"
	case WallRecoveryProject:
		return "project"
	default:
		return fmt.Sprintf("unknown(%d)", w)
	}
}

// ParseWallRecovery は文字列から WallRecovery を取得します。
func ParseWallRecovery(s string) (WallRecovery, error) {
	switch s {
	case "", "clamp":
		return WallRecoveryClamp, nil
	case "project":
		return WallRecoveryProject, nil
	default:
		return 0, fmt.Errorf("%w: unknown wall recovery %q", ErrConfiguration, s)
	}
}

// Rules はバトルごとに注入される不変のルールセットです。
// 複数のバトルが異なるルールで同時に動けるよう、グローバル状態は持ちません。
type Rules struct {
	ArenaWidth  float64
	ArenaHeight float64

	GunCoolingRate float64

	InitialBotEnergy float64
	InitialGunHeat   float64
	BotRadius        float64
	RadarRadius      float64

	MaxTurnRate         float64
	MaxGunTurnRate      float64
	MaxRadarTurnRate    float64
	TurnRateSpeedFactor float64

	MaxForwardSpeed  float64
	MaxBackwardSpeed float64
	Acceleration     float64
	Deceleration     float64

	MinFirepower float64
	MaxFirepower float64

	RamDamage                 float64
	BulletHitEnergyGainFactor float64

	ScorePerSurvival     float64
	SurvivalPeriodTicks  int
	BonusPerLastSurvivor float64
	ScorePerBulletDamage float64
	BonusPerBulletKill   float64
	ScorePerRamDamage    float64
	BonusPerRamKill      float64

	InactivityDamage float64
	InactivityTicks  int

	MovementPenalty   float64
	RadarPenalty      float64
	TurnAroundPenalty float64

	MaxTeamMessageSize             int
	MaxNumberOfTeamMessagesPerTurn int

	// MaxTicks が 0 の場合はティック数の上限なし
	MaxTicks             int
	DisconnectGraceTicks int
	WallRecovery         WallRecovery
}

// DefaultRules は標準ルールを返します。
func DefaultRules() Rules {
	return Rules{
		ArenaWidth:                     800,
		ArenaHeight:                    600,
		GunCoolingRate:                 MinGunCoolingRate,
		InitialBotEnergy:               InitialBotEnergy,
		InitialGunHeat:                 InitialGunHeat,
		BotRadius:                      BotBoundingCircleRadius,
		RadarRadius:                    RadarRadius,
		MaxTurnRate:                    MaxTurnRate,
		MaxGunTurnRate:                 MaxGunTurnRate,
		MaxRadarTurnRate:               MaxRadarTurnRate,
		TurnRateSpeedFactor:            TurnRateSpeedFactor,
		MaxForwardSpeed:                MaxForwardSpeed,
		MaxBackwardSpeed:               MaxBackwardSpeed,
		Acceleration:                   Acceleration,
		Deceleration:                   Deceleration,
		MinFirepower:                   MinFirepower,
		MaxFirepower:                   MaxFirepower,
		RamDamage:                      RamDamage,
		BulletHitEnergyGainFactor:      BulletHitEnergyGainFactor,
		ScorePerSurvival:               ScorePerSurvival,
		SurvivalPeriodTicks:            DefaultSurvivalPeriodTicks,
		BonusPerLastSurvivor:           BonusPerLastSurvivor,
		ScorePerBulletDamage:           ScorePerBulletDamage,
		BonusPerBulletKill:             BonusPerBulletKill,
		ScorePerRamDamage:              ScorePerRamDamage,
		BonusPerRamKill:                BonusPerRamKill,
		InactivityDamage:               InactivityDamage,
		InactivityTicks:                DefaultInactivityTicks,
		MovementPenalty:                MovementPenalty,
		RadarPenalty:                   RadarPenalty,
		TurnAroundPenalty:              TurnAroundPenalty,
		MaxTeamMessageSize:             MaxTeamMessageSize,
		MaxNumberOfTeamMessagesPerTurn: MaxNumberOfTeamMessagesPerTurn,
		DisconnectGraceTicks:           DefaultDisconnectGrace,
		WallRecovery:                   WallRecoveryClamp,
	}
}

// Validate はルールの整合性を検証します。
func (r Rules) Validate() error {
	if r.ArenaWidth < ArenaMinSize || r.ArenaWidth > ArenaMaxSize {
		return fmt.Errorf("%w: arena width %.0f outside [%d, %d]", ErrConfiguration, r.ArenaWidth, ArenaMinSize, ArenaMaxSize)
	}
	if r.ArenaHeight < ArenaMinSize || r.ArenaHeight > ArenaMaxSize {
		return fmt.Errorf("%w: arena height %.0f outside [%d, %d]", ErrConfiguration, r.ArenaHeight, ArenaMinSize, ArenaMaxSize)
	}
	if r.GunCoolingRate < MinGunCoolingRate || r.GunCoolingRate > MaxGunCoolingRate {
		return fmt.Errorf("%w: gun cooling rate %.2f outside [%.1f, %.1f]", ErrConfiguration, r.GunCoolingRate, MinGunCoolingRate, MaxGunCoolingRate)
	}
	if r.BotRadius <= 0 || r.InitialBotEnergy <= 0 {
		return fmt.Errorf("%w: bot radius and initial energy must be positive", ErrConfiguration)
	}
	if r.MinFirepower <= 0 || r.MaxFirepower < r.MinFirepower {
		return fmt.Errorf("%w: invalid firepower range [%.2f, %.2f]", ErrConfiguration, r.MinFirepower, r.MaxFirepower)
	}
	if r.MaxBackwardSpeed > 0 || r.MaxForwardSpeed < 0 {
		return fmt.Errorf("%w: invalid speed range [%.2f, %.2f]", ErrConfiguration, r.MaxBackwardSpeed, r.MaxForwardSpeed)
	}
	if r.Acceleration <= 0 || r.Deceleration >= 0 {
		return fmt.Errorf("%w: acceleration must be positive and deceleration negative", ErrConfiguration)
	}
	if r.SurvivalPeriodTicks <= 0 {
		return fmt.Errorf("%w: survival period must be positive", ErrConfiguration)
	}
	if r.MaxTicks < 0 || r.InactivityTicks < 0 || r.DisconnectGraceTicks < 0 {
		return fmt.Errorf("%w: tick counts must not be negative", ErrConfiguration)
	}
	return nil
}

// CalcBulletSpeed は弾の威力から弾速を計算します。
func CalcBulletSpeed(power float64) float64 {
	return 20 - 3*power
}

// CalcBulletDamage は弾の威力からダメージを計算します。
func CalcBulletDamage(power float64) float64 {
	damage := 4 * power
	if power > 1 {
		damage += 2 * (power - 1)
	}
	return damage
}

// CalcGunHeat は発射後の砲身の熱量を計算します。
func CalcGunHeat(power float64) float64 {
	return 1 + power/5
}

// MaxTurnRateAt は速度に応じた車体の最大旋回速度を返します。
// 速度の絶対値に比例して減少し、MaxForwardSpeed で下限に達します。
func (r Rules) MaxTurnRateAt(speed float64) float64 {
	s := math.Min(math.Abs(speed), r.MaxForwardSpeed)
	return math.Max(0, r.MaxTurnRate-r.TurnRateSpeedFactor*s)
}

// SurvivalScorePerTick はティックごとの生存得分です。
func (r Rules) SurvivalScorePerTick() float64 {
	return r.ScorePerSurvival / float64(r.SurvivalPeriodTicks)
}

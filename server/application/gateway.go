package application

import (
	"encoding/json"
	"fmt"

	"botarena/server/domain"
	"botarena/server/engine"
)

// BotView はワイヤ上のボット状態です。
type BotView struct {
	ID             engine.BotID  `json:"id"`
	Name           string        `json:"name"`
	TeamID         engine.TeamID `json:"teamId,omitempty"`
	X              float64       `json:"x"`
	Y              float64       `json:"y"`
	Direction      float64       `json:"direction"`
	GunDirection   float64       `json:"gunDirection"`
	RadarDirection float64       `json:"radarDirection"`
	Speed          float64       `json:"speed"`
	Energy         float64       `json:"energy"`
	GunHeat        float64       `json:"gunHeat"`
	TurnRate       float64       `json:"turnRate"`
	GunTurnRate    float64       `json:"gunTurnRate"`
	RadarTurnRate  float64       `json:"radarTurnRate"`
	Alive          bool          `json:"alive"`
}

// BulletView はワイヤ上の弾の状態です。
type BulletView struct {
	ID        engine.BulletID `json:"bulletId"`
	OwnerID   engine.BotID    `json:"ownerId"`
	Power     float64         `json:"power"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Direction float64         `json:"direction"`
	Speed     float64         `json:"speed"`
}

// WallView はワイヤ上の壁です。
type WallView struct {
	ID       engine.WallID `json:"id"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Rotation float64       `json:"rotation"`
	Color    string        `json:"color,omitempty"`
}

// ScoreView はワイヤ上の TickScore です。
type ScoreView struct {
	ParticipantID     engine.BotID  `json:"participantId"`
	TeamID            engine.TeamID `json:"teamId,omitempty"`
	BulletDamageScore float64       `json:"bulletDamageScore"`
	BulletKillBonus   float64       `json:"bulletKillBonus"`
	RamDamageScore    float64       `json:"ramDamageScore"`
	RamKillBonus      float64       `json:"ramKillBonus"`
	SurvivalScore     float64       `json:"survivalScore"`
	LastSurvivorBonus float64       `json:"lastSurvivorBonus"`
	TotalScore        float64       `json:"totalScore"`
	Rank              int           `json:"rank"`
}

// EventView はイベントを受信側で読むための共通の形です。
// 送信時はイベント種別ごとの必要なフィールドだけを出力します。
type EventView struct {
	Type           string        `json:"type"`
	TurnNumber     int           `json:"turnNumber"`
	ScannedByBotID engine.BotID  `json:"scannedByBotId"`
	ScannedBotID   engine.BotID  `json:"scannedBotId"`
	ScannedWallID  engine.WallID `json:"scannedWallId"`
	BotID          engine.BotID  `json:"botId"`
	VictimID       engine.BotID  `json:"victimId"`
	WallID         engine.WallID `json:"wallId"`
	SenderID       engine.BotID  `json:"senderId"`
	ReceiverID     engine.BotID  `json:"receiverId"`
	X              float64       `json:"x"`
	Y              float64       `json:"y"`
	Width          float64       `json:"width"`
	Height         float64       `json:"height"`
	Rotation       float64       `json:"rotation"`
	Direction      float64       `json:"direction"`
	Speed          float64       `json:"speed"`
	Energy         float64       `json:"energy"`
	Damage         float64       `json:"damage"`
	Rammed         bool          `json:"rammed"`
	Bullet         *BulletView   `json:"bullet"`
	Payload        []byte        `json:"payload"`
}

// BotTickMessage はボット1台に送るティック情報です。
type BotTickMessage struct {
	Tick    int          `json:"tick"`
	Over    bool         `json:"over"`
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Self    BotView      `json:"self"`
	Bullets []BulletView `json:"bullets"`
	Walls   []WallView   `json:"walls"`
	Scores  []ScoreView  `json:"scores"`
	Events  []EventView  `json:"-"`
}

// ObserverTickMessage は観戦者に送るアリーナ全体のティック情報です。
type ObserverTickMessage struct {
	Tick    int          `json:"tick"`
	Over    bool         `json:"over"`
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Bots    []BotView    `json:"bots"`
	Bullets []BulletView `json:"bullets"`
	Walls   []WallView   `json:"walls"`
	Scores  []ScoreView  `json:"scores"`
}

// BattleResult はバトル終了時に送る結果です。
type BattleResult struct {
	Reason string      `json:"reason"`
	Tick   int         `json:"tick"`
	Scores []ScoreView `json:"scores"`
}

// DecodeBotTick はボット宛てのティックメッセージのペイロードをデコードします。
func DecodeBotTick(payload []byte) (*BotTickMessage, error) {
	var wire struct {
		BotTickMessage
		Events []EventView `json:"events"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}
	msg := wire.BotTickMessage
	msg.Events = wire.Events
	return &msg, nil
}

// encodeBotTick はスナップショットから bot 宛てのメッセージを組み立てます。
func encodeBotTick(sessionID domain.SessionID, snap *engine.Snapshot, bot engine.BotID) ([]byte, error) {
	self, ok := snap.Bot(bot)
	if !ok {
		return nil, fmt.Errorf("bot %d not in snapshot", bot)
	}
	var bullets []BulletView
	for _, b := range snap.Bullets {
		if b.OwnerID == bot {
			bullets = append(bullets, bulletView(b))
		}
	}
	body := struct {
		BotTickMessage
		Events []any `json:"events"`
	}{
		BotTickMessage: BotTickMessage{
			Tick:    snap.Tick,
			Over:    snap.Over,
			Width:   snap.Width,
			Height:  snap.Height,
			Self:    botView(self),
			Bullets: bullets,
			Walls:   wallViews(snap.Walls),
			Scores:  ScoreViews(snap.Scores),
		},
		Events: eventViews(snap.EventsFor(bot)),
	}
	return encodeJSON(sessionID, domain.DataTypeTick, uint8(domain.TickSubTypeBot), body)
}

// encodeObserverTick はスナップショット全体を観戦者向けにエンコードします。
func encodeObserverTick(snap *engine.Snapshot) ([]byte, error) {
	bots := make([]BotView, 0, len(snap.Bots))
	for _, b := range snap.Bots {
		bots = append(bots, botView(b))
	}
	bullets := make([]BulletView, 0, len(snap.Bullets))
	for _, b := range snap.Bullets {
		bullets = append(bullets, bulletView(b))
	}
	body := struct {
		ObserverTickMessage
		Events []any `json:"events"`
	}{
		ObserverTickMessage: ObserverTickMessage{
			Tick:    snap.Tick,
			Over:    snap.Over,
			Width:   snap.Width,
			Height:  snap.Height,
			Bots:    bots,
			Bullets: bullets,
			Walls:   wallViews(snap.Walls),
			Scores:  ScoreViews(snap.Scores),
		},
		Events: eventViews(snap.Events),
	}
	return encodeJSON(domain.SessionID{}, domain.DataTypeTick, uint8(domain.TickSubTypeObserver), body)
}

func encodeBattleResult(result BattleResult) ([]byte, error) {
	return encodeJSON(domain.SessionID{}, domain.DataTypeControl, uint8(domain.ControlSubTypeBattleEnded), result)
}

func encodeJSON(sessionID domain.SessionID, dataType domain.DataType, subType uint8, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return domain.EncodeMessage(sessionID, dataType, subType, payload)
}

func botView(b engine.BotState) BotView {
	return BotView{
		ID:             b.ID,
		Name:           b.Name,
		TeamID:         b.TeamID,
		X:              b.X,
		Y:              b.Y,
		Direction:      b.Direction,
		GunDirection:   b.GunDirection,
		RadarDirection: b.RadarDirection,
		Speed:          b.Speed,
		Energy:         b.Energy,
		GunHeat:        b.GunHeat,
		TurnRate:       b.TurnRate,
		GunTurnRate:    b.GunTurnRate,
		RadarTurnRate:  b.RadarTurnRate,
		Alive:          b.Alive,
	}
}

func bulletView(b engine.BulletState) BulletView {
	return BulletView{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Power:     b.Power,
		X:         b.X,
		Y:         b.Y,
		Direction: b.Direction,
		Speed:     b.Speed,
	}
}

func wallViews(walls []engine.WallState) []WallView {
	out := make([]WallView, 0, len(walls))
	for _, w := range walls {
		out = append(out, WallView{
			ID:       w.ID,
			X:        w.X,
			Y:        w.Y,
			Width:    w.Width,
			Height:   w.Height,
			Rotation: w.Rotation,
			Color:    w.Color,
		})
	}
	return out
}

// ScoreViews は順位付きの得点をワイヤ表現に変換します。
func ScoreViews(scores []engine.TickScore) []ScoreView {
	out := make([]ScoreView, 0, len(scores))
	for _, sc := range scores {
		out = append(out, ScoreView{
			ParticipantID:     sc.Participant.BotID,
			TeamID:            sc.Participant.TeamID,
			BulletDamageScore: sc.BulletDamageScore,
			BulletKillBonus:   sc.BulletKillBonus,
			RamDamageScore:    sc.RamDamageScore,
			RamKillBonus:      sc.RamKillBonus,
			SurvivalScore:     sc.SurvivalScore,
			LastSurvivorBonus: sc.LastSurvivorBonus,
			TotalScore:        sc.TotalScore,
			Rank:              sc.Rank,
		})
	}
	return out
}

type scannedBotJSON struct {
	Type           string       `json:"type"`
	TurnNumber     int          `json:"turnNumber"`
	ScannedByBotID engine.BotID `json:"scannedByBotId"`
	ScannedBotID   engine.BotID `json:"scannedBotId"`
	Energy         float64      `json:"energy"`
	X              float64      `json:"x"`
	Y              float64      `json:"y"`
	Direction      float64      `json:"direction"`
	Speed          float64      `json:"speed"`
}

type scannedWallJSON struct {
	Type           string        `json:"type"`
	TurnNumber     int           `json:"turnNumber"`
	ScannedByBotID engine.BotID  `json:"scannedByBotId"`
	ScannedWallID  engine.WallID `json:"scannedWallId"`
	X              float64       `json:"x"`
	Y              float64       `json:"y"`
	Width          float64       `json:"width"`
	Height         float64       `json:"height"`
	Rotation       float64       `json:"rotation"`
}

type hitBotJSON struct {
	Type       string       `json:"type"`
	TurnNumber int          `json:"turnNumber"`
	BotID      engine.BotID `json:"botId"`
	VictimID   engine.BotID `json:"victimId"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Energy     float64      `json:"energy"`
	Rammed     bool         `json:"rammed"`
}

type hitWallJSON struct {
	Type       string        `json:"type"`
	TurnNumber int           `json:"turnNumber"`
	BotID      engine.BotID  `json:"botId"`
	WallID     engine.WallID `json:"wallId"`
}

type bulletFiredJSON struct {
	Type       string     `json:"type"`
	TurnNumber int        `json:"turnNumber"`
	Bullet     BulletView `json:"bullet"`
}

type bulletHitBotJSON struct {
	Type       string       `json:"type"`
	TurnNumber int          `json:"turnNumber"`
	Bullet     BulletView   `json:"bullet"`
	VictimID   engine.BotID `json:"victimId"`
	Damage     float64      `json:"damage"`
	Energy     float64      `json:"energy"`
}

type bulletHitWallJSON struct {
	Type       string        `json:"type"`
	TurnNumber int           `json:"turnNumber"`
	Bullet     BulletView    `json:"bullet"`
	WallID     engine.WallID `json:"wallId"`
}

type botDeathJSON struct {
	Type       string       `json:"type"`
	TurnNumber int          `json:"turnNumber"`
	VictimID   engine.BotID `json:"victimId"`
}

type teamMessageJSON struct {
	Type       string       `json:"type"`
	TurnNumber int          `json:"turnNumber"`
	SenderID   engine.BotID `json:"senderId"`
	ReceiverID engine.BotID `json:"receiverId"`
	// Payload は base64 で出力されます。
	Payload []byte `json:"payload"`
}

func eventViews(events []engine.Event) []any {
	out := make([]any, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON(e))
	}
	return out
}

func eventJSON(e engine.Event) any {
	kind := e.Kind().String()
	switch ev := e.(type) {
	case engine.ScannedBotEvent:
		return scannedBotJSON{kind, ev.TurnNumber, ev.ScannedByBotID, ev.ScannedBotID, ev.Energy, ev.X, ev.Y, ev.Direction, ev.Speed}
	case engine.ScannedWallEvent:
		return scannedWallJSON{kind, ev.TurnNumber, ev.ScannedByBotID, ev.ScannedWallID, ev.X, ev.Y, ev.Width, ev.Height, ev.Rotation}
	case engine.HitBotEvent:
		return hitBotJSON{kind, ev.TurnNumber, ev.BotID, ev.VictimID, ev.X, ev.Y, ev.Energy, ev.Rammed}
	case engine.HitWallEvent:
		return hitWallJSON{kind, ev.TurnNumber, ev.BotID, ev.WallID}
	case engine.BulletFiredEvent:
		return bulletFiredJSON{kind, ev.TurnNumber, bulletView(ev.Bullet)}
	case engine.BulletHitBotEvent:
		return bulletHitBotJSON{kind, ev.TurnNumber, bulletView(ev.Bullet), ev.VictimID, ev.Damage, ev.Energy}
	case engine.BulletHitWallEvent:
		return bulletHitWallJSON{kind, ev.TurnNumber, bulletView(ev.Bullet), ev.WallID}
	case engine.BotDeathEvent:
		return botDeathJSON{kind, ev.TurnNumber, ev.VictimID}
	case engine.TeamMessageEvent:
		return teamMessageJSON{kind, ev.TurnNumber, ev.SenderID, ev.ReceiverID, ev.Payload}
	default:
		return struct {
			Type       string `json:"type"`
			TurnNumber int    `json:"turnNumber"`
		}{kind, e.Turn()}
	}
}

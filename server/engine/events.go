package engine

// EventKind はイベントの種別です。
type EventKind uint8

const (
	EventScannedBot EventKind = iota + 1
	EventScannedWall
	EventHitBot
	EventHitWall
	EventBulletFired
	EventBulletHitBot
	EventBulletHitWall
	EventBotDeath
	EventTeamMessage
)

func (k EventKind) String() string {
	switch k {
	case EventScannedBot:
		return "ScannedBotEvent"
	case EventScannedWall:
		return "ScannedWallEvent"
	case EventHitBot:
		return "HitBotEvent"
	case EventHitWall:
		return "HitWallEvent"
	case EventBulletFired:
		return "BulletFiredEvent"
	case EventBulletHitBot:
		return "BulletHitBotEvent"
	case EventBulletHitWall:
		return "BulletHitWallEvent"
	case EventBotDeath:
		return "BotDeathEvent"
	case EventTeamMessage:
		return "TeamMessageEvent"
	default:
		return "UnknownEvent"
	}
}

// Event はティック中に発生したイベントです。種別は閉じた集合で、このパッケージの型だけが実装します。
type Event interface {
	Kind() EventKind
	Turn() int
	// Recipients はイベントを受け取るボットです。nil の場合は全ボットに配信します。
	Recipients() []BotID
	isEvent()
}

// ScannedBotEvent はレーダーが他のボットを捉えたときに発生します。
type ScannedBotEvent struct {
	TurnNumber     int
	ScannedByBotID BotID
	ScannedBotID   BotID
	Energy         float64
	X, Y           float64
	Direction      float64
	Speed          float64
}

// ScannedWallEvent はレーダーが壁を捉えたときに発生します。
type ScannedWallEvent struct {
	TurnNumber     int
	ScannedByBotID BotID
	ScannedWallID  WallID
	X, Y           float64
	Width, Height  float64
	Rotation       float64
}

// HitBotEvent はボット同士が衝突したときに、衝突した各ボットへ発生します。
type HitBotEvent struct {
	TurnNumber int
	BotID      BotID
	VictimID   BotID
	X, Y       float64
	// Energy は相手の残りエネルギーです。
	Energy float64
	Rammed bool
}

// HitWallEvent はボットが壁またはアリーナ境界に衝突したときに発生します。
// WallID が 0 の場合はアリーナ境界です。
type HitWallEvent struct {
	TurnNumber int
	BotID      BotID
	WallID     WallID
}

// BulletFiredEvent はボットが弾を発射したときに発生します。
type BulletFiredEvent struct {
	TurnNumber int
	Bullet     BulletState
}

// BulletHitBotEvent は弾がボットに命中したときに発生します。
type BulletHitBotEvent struct {
	TurnNumber int
	Bullet     BulletState
	VictimID   BotID
	Damage     float64
	Energy     float64
}

// BulletHitWallEvent は弾が壁またはアリーナ境界に当たったときに発生します。
type BulletHitWallEvent struct {
	TurnNumber int
	Bullet     BulletState
	WallID     WallID
}

// BotDeathEvent はボットが撃破されたときに発生します。
type BotDeathEvent struct {
	TurnNumber int
	VictimID   BotID
}

// TeamMessageEvent はチームメイトからのメッセージです。
type TeamMessageEvent struct {
	TurnNumber int
	SenderID   BotID
	ReceiverID BotID
	Payload    []byte
}

func (e ScannedBotEvent) Kind() EventKind    { return EventScannedBot }
func (e ScannedWallEvent) Kind() EventKind   { return EventScannedWall }
func (e HitBotEvent) Kind() EventKind        { return EventHitBot }
func (e HitWallEvent) Kind() EventKind       { return EventHitWall }
func (e BulletFiredEvent) Kind() EventKind   { return EventBulletFired }
func (e BulletHitBotEvent) Kind() EventKind  { return EventBulletHitBot }
func (e BulletHitWallEvent) Kind() EventKind { return EventBulletHitWall }
func (e BotDeathEvent) Kind() EventKind      { return EventBotDeath }
func (e TeamMessageEvent) Kind() EventKind   { return EventTeamMessage }

func (e ScannedBotEvent) Turn() int    { return e.TurnNumber }
func (e ScannedWallEvent) Turn() int   { return e.TurnNumber }
func (e HitBotEvent) Turn() int        { return e.TurnNumber }
func (e HitWallEvent) Turn() int       { return e.TurnNumber }
func (e BulletFiredEvent) Turn() int   { return e.TurnNumber }
func (e BulletHitBotEvent) Turn() int  { return e.TurnNumber }
func (e BulletHitWallEvent) Turn() int { return e.TurnNumber }
func (e BotDeathEvent) Turn() int      { return e.TurnNumber }
func (e TeamMessageEvent) Turn() int   { return e.TurnNumber }

func (e ScannedBotEvent) Recipients() []BotID    { return []BotID{e.ScannedByBotID} }
func (e ScannedWallEvent) Recipients() []BotID   { return []BotID{e.ScannedByBotID} }
func (e HitBotEvent) Recipients() []BotID        { return []BotID{e.BotID} }
func (e HitWallEvent) Recipients() []BotID       { return []BotID{e.BotID} }
func (e BulletFiredEvent) Recipients() []BotID   { return []BotID{e.Bullet.OwnerID} }
func (e BulletHitBotEvent) Recipients() []BotID  { return []BotID{e.Bullet.OwnerID, e.VictimID} }
func (e BulletHitWallEvent) Recipients() []BotID { return []BotID{e.Bullet.OwnerID} }
func (e BotDeathEvent) Recipients() []BotID      { return nil }
func (e TeamMessageEvent) Recipients() []BotID   { return []BotID{e.ReceiverID} }

func (ScannedBotEvent) isEvent()    {}
func (ScannedWallEvent) isEvent()   {}
func (HitBotEvent) isEvent()        {}
func (HitWallEvent) isEvent()       {}
func (BulletFiredEvent) isEvent()   {}
func (BulletHitBotEvent) isEvent()  {}
func (BulletHitWallEvent) isEvent() {}
func (BotDeathEvent) isEvent()      {}
func (TeamMessageEvent) isEvent()   {}

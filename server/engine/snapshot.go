package engine

// BotState はボットの状態のコピーです。
type BotState struct {
	ID             BotID
	Name           string
	TeamID         TeamID
	Participant    ParticipantID
	X, Y           float64
	Direction      float64
	GunDirection   float64
	RadarDirection float64
	Speed          float64
	Energy         float64
	GunHeat        float64
	TurnRate       float64
	GunTurnRate    float64
	RadarTurnRate  float64
	Alive          bool
}

// BulletState は弾の状態のコピーです。
type BulletState struct {
	ID        BulletID
	OwnerID   BotID
	Power     float64
	X, Y      float64
	Direction float64
	Speed     float64
	SpawnTick int
}

// WallState は壁の状態のコピーです。
type WallState struct {
	ID            WallID
	X, Y          float64
	Width, Height float64
	Rotation      float64
	Color         string
}

// Snapshot は1ティック終了時点のアリーナの不変なスナップショットです。
type Snapshot struct {
	Tick    int
	Width   float64
	Height  float64
	Bots    []BotState
	Bullets []BulletState
	Walls   []WallState
	Scores  []TickScore
	Events  []Event
	Over    bool
}

func (b *Bot) state() BotState {
	return BotState{
		ID:             b.ID,
		Name:           b.Name,
		TeamID:         b.TeamID,
		Participant:    b.Participant,
		X:              b.Position.X,
		Y:              b.Position.Y,
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

func (b *Bullet) state() BulletState {
	return BulletState{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Power:     b.Power,
		X:         b.Position.X,
		Y:         b.Position.Y,
		Direction: b.Direction,
		Speed:     b.Speed,
		SpawnTick: b.SpawnTick,
	}
}

func (w *Wall) state() WallState {
	return WallState{
		ID:       w.ID,
		X:        w.Shape.Center.X,
		Y:        w.Shape.Center.Y,
		Width:    w.Shape.Width,
		Height:   w.Shape.Height,
		Rotation: w.Shape.Rotation,
		Color:    w.Color,
	}
}

// Bot は ID のボット状態を返します。
func (s *Snapshot) Bot(id BotID) (BotState, bool) {
	for _, b := range s.Bots {
		if b.ID == id {
			return b, true
		}
	}
	return BotState{}, false
}

// Score は参加者の TickScore を返します。
func (s *Snapshot) Score(p ParticipantID) (TickScore, bool) {
	for _, sc := range s.Scores {
		if sc.Participant == p {
			return sc, true
		}
	}
	return TickScore{}, false
}

// EventsFor は bot 宛てのイベントだけを返します。
func (s *Snapshot) EventsFor(bot BotID) []Event {
	var out []Event
	for _, e := range s.Events {
		recipients := e.Recipients()
		if recipients == nil {
			out = append(out, e)
			continue
		}
		for _, r := range recipients {
			if r == bot {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

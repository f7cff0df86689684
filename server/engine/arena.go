package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"botarena/server/geometry"
)

// ErrBattleOver は終了したバトルを進めようとしたときのエラーです。
var ErrBattleOver = errors.New("battle is over")

const (
	maxSpawnAttempts = 1000
	spawnSeedSalt    = 0x9e3779b97f4a7c15
)

// Arena は1つのバトルの権威ある状態を保持します。
// ティックの処理中に他の goroutine から状態を変更してはいけません。
type Arena struct {
	rules Rules
	tick  int

	walls     []*Wall
	wallIndex *wallIndex

	bots      []*Bot
	botByID   map[BotID]*Bot
	botByName map[string]BotID

	bullets      []*Bullet
	nextBulletID BulletID

	participants []ParticipantID
	teamNames    map[TeamID]string
	scoring      *Scoring

	over bool
	last *Snapshot
}

// NewArena はルール・壁・ロスターからアリーナを作成します。
// 初期位置が指定されていないボットは seed で初期化した PCG 乱数で配置します。
func NewArena(rules Rules, walls []WallSpec, roster []BotSpec, seed uint64) (*Arena, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrConfiguration)
	}

	a := &Arena{
		rules:     rules,
		botByID:   make(map[BotID]*Bot, len(roster)),
		botByName: make(map[string]BotID, len(roster)),
		teamNames: make(map[TeamID]string),
	}

	seen := make(map[WallID]struct{}, len(walls))
	for i, spec := range walls {
		id := spec.ID
		if id == 0 {
			id = WallID(i + 1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate wall id %d", ErrConfiguration, id)
		}
		seen[id] = struct{}{}
		w, err := NewWall(id, spec)
		if err != nil {
			return nil, err
		}
		a.walls = append(a.walls, w)
	}
	index, err := newWallIndex(a.walls)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	a.wallIndex = index

	if err := a.spawnBots(roster, seed); err != nil {
		return nil, err
	}
	a.scoring = NewScoring(rules, a.participants)
	a.last = a.snapshot(nil)
	return a, nil
}

func (a *Arena) spawnBots(roster []BotSpec, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^spawnSeedSalt))
	teams := make(map[string]TeamID)
	representative := make(map[TeamID]BotID)

	for i, spec := range roster {
		id := BotID(i + 1)
		if spec.Name == "" {
			return fmt.Errorf("%w: roster entry %d has no name", ErrConfiguration, i)
		}
		if _, dup := a.botByName[spec.Name]; dup {
			return fmt.Errorf("%w: duplicate bot name %q", ErrConfiguration, spec.Name)
		}

		var team TeamID
		participant := ParticipantID{BotID: id}
		if spec.Team != "" {
			t, ok := teams[spec.Team]
			if !ok {
				t = TeamID(len(teams) + 1)
				teams[spec.Team] = t
				a.teamNames[t] = spec.Team
				representative[t] = id
				a.participants = append(a.participants, ParticipantID{BotID: id, TeamID: t})
			}
			team = t
			participant = ParticipantID{BotID: representative[t], TeamID: t}
		} else {
			a.participants = append(a.participants, participant)
		}

		pos, dir, err := a.spawnPosition(spec, rng)
		if err != nil {
			return err
		}
		bot := newBot(id, spec.Name, team, participant, pos, dir, a.rules)
		a.bots = append(a.bots, bot)
		a.botByID[id] = bot
		a.botByName[spec.Name] = id
	}
	return nil
}

func (a *Arena) spawnPosition(spec BotSpec, rng *rand.Rand) (geometry.Point, float64, error) {
	r := a.rules.BotRadius
	if spec.Start != nil {
		p := geometry.Point{X: spec.Start.X, Y: spec.Start.Y}
		if !a.canSpawnAt(p) {
			return geometry.Point{}, 0, fmt.Errorf("%w: start position of %q is blocked", ErrConfiguration, spec.Name)
		}
		return p, spec.Start.Direction, nil
	}
	for range maxSpawnAttempts {
		p := geometry.Point{
			X: r + rng.Float64()*(a.rules.ArenaWidth-2*r),
			Y: r + rng.Float64()*(a.rules.ArenaHeight-2*r),
		}
		if a.canSpawnAt(p) {
			return p, rng.Float64() * 360, nil
		}
	}
	return geometry.Point{}, 0, fmt.Errorf("%w: no free spawn position for %q", ErrConfiguration, spec.Name)
}

func (a *Arena) canSpawnAt(p geometry.Point) bool {
	r := a.rules.BotRadius
	if p.X < r || p.X > a.rules.ArenaWidth-r || p.Y < r || p.Y > a.rules.ArenaHeight-r {
		return false
	}
	for _, w := range a.wallIndex.nearCircle(p, r) {
		if hitsCircle(w, p, r) {
			return false
		}
	}
	for _, b := range a.bots {
		if geometry.Distance(b.Position, p) < 2*r {
			return false
		}
	}
	return true
}

// Rules はバトルのルールを返します。
func (a *Arena) Rules() Rules { return a.rules }

// Tick は最後に処理したティック番号を返します。
func (a *Arena) Tick() int { return a.tick }

// Over はバトルが終了しているかを返します。
func (a *Arena) Over() bool { return a.over }

// Last は最後に確定したスナップショットを返します。
func (a *Arena) Last() *Snapshot { return a.last }

// Participants は参加者の一覧を返します。
func (a *Arena) Participants() []ParticipantID {
	out := make([]ParticipantID, len(a.participants))
	copy(out, a.participants)
	return out
}

// Standings は現在の得点を順位付きで返します。
func (a *Arena) Standings() []TickScore { return a.scoring.Snapshot() }

// TeamName はチーム名を返します。
func (a *Arena) TeamName(id TeamID) string { return a.teamNames[id] }

// BotIDByName はロスター名からボットIDを引きます。
func (a *Arena) BotIDByName(name string) (BotID, bool) {
	id, ok := a.botByName[name]
	return id, ok
}

// Disconnect はボットの接続断を記録します。猶予ティックを過ぎると撃破扱いになります。
func (a *Arena) Disconnect(id BotID) {
	if b, ok := a.botByID[id]; ok && b.Alive {
		b.disconnected = true
	}
}

// Reconnect は猶予期間内に再接続したボットを復帰させます。
func (a *Arena) Reconnect(id BotID) {
	if b, ok := a.botByID[id]; ok && b.Alive {
		b.disconnected = false
		b.disconnectedTicks = 0
	}
}

// tickOutcome は1ティック中に発生したイベントとダメージ記録です。
type tickOutcome struct {
	tick    int
	events  []Event
	damages []Damage
}

func (o *tickOutcome) emit(e Event) {
	o.events = append(o.events, e)
}

// Step はティックを1つ進めます。
// intents に含まれないボットは何もしない指示を出したものとして扱います。
func (a *Arena) Step(intents map[BotID]Intent) (*Snapshot, error) {
	if a.over {
		return a.last, ErrBattleOver
	}
	a.tick++
	out := &tickOutcome{tick: a.tick}

	a.deliverTeamMessages(out)
	a.applyDisconnects()

	travels := a.moveBullets()
	a.moveBots(intents)

	a.resolveBotWallCollisions(out)
	a.resolveBotCollisions(out)
	travels = a.resolveBulletWallCollisions(travels, out)
	a.resolveBulletBotCollisions(travels, out)

	a.fireBullets(out)
	eliminated := a.resolveDeaths(out)
	alive := a.aliveParticipants()
	a.scoring.Apply(a.tick, out.damages, alive, eliminated)

	a.scan(out)

	if len(alive) <= 1 || (a.rules.MaxTicks > 0 && a.tick >= a.rules.MaxTicks) {
		a.over = true
	}
	snap := a.snapshot(out.events)
	if err := CheckInvariants(snap); err != nil {
		a.over = true
		return a.last, err
	}
	a.last = snap
	return snap, nil
}

func (a *Arena) applyDisconnects() {
	for _, b := range a.bots {
		if !b.Alive || !b.disconnected {
			continue
		}
		b.disconnectedTicks++
		if b.disconnectedTicks > a.rules.DisconnectGraceTicks {
			b.Energy = 0
		}
	}
}

// resolveDeaths はエネルギーが0になったボットを撃破済みにし、
// このティックで全滅した参加者を返します。
func (a *Arena) resolveDeaths(out *tickOutcome) []ParticipantID {
	before := a.aliveParticipants()
	for _, b := range a.bots {
		if b.Alive && b.Energy <= 0 {
			b.Alive = false
			b.Speed = 0
			b.Energy = 0
			out.emit(BotDeathEvent{TurnNumber: out.tick, VictimID: b.ID})
		}
	}
	after := make(map[ParticipantID]struct{})
	for _, p := range a.aliveParticipants() {
		after[p] = struct{}{}
	}
	var eliminated []ParticipantID
	for _, p := range before {
		if _, ok := after[p]; !ok {
			eliminated = append(eliminated, p)
		}
	}
	return eliminated
}

// aliveParticipants は生存しているボットを持つ参加者を参加者順に返します。
func (a *Arena) aliveParticipants() []ParticipantID {
	alive := make(map[ParticipantID]bool, len(a.participants))
	for _, b := range a.bots {
		if b.Alive {
			alive[b.Participant] = true
		}
	}
	out := make([]ParticipantID, 0, len(alive))
	for _, p := range a.participants {
		if alive[p] {
			out = append(out, p)
		}
	}
	return out
}

func (a *Arena) aliveBots() []*Bot {
	out := make([]*Bot, 0, len(a.bots))
	for _, b := range a.bots {
		if b.Alive {
			out = append(out, b)
		}
	}
	return out
}

func (a *Arena) snapshot(events []Event) *Snapshot {
	s := &Snapshot{
		Tick:    a.tick,
		Width:   a.rules.ArenaWidth,
		Height:  a.rules.ArenaHeight,
		Bots:    make([]BotState, 0, len(a.bots)),
		Bullets: make([]BulletState, 0, len(a.bullets)),
		Walls:   make([]WallState, 0, len(a.walls)),
		Events:  events,
		Over:    a.over,
	}
	for _, b := range a.bots {
		s.Bots = append(s.Bots, b.state())
	}
	for _, b := range a.bullets {
		s.Bullets = append(s.Bullets, b.state())
	}
	for _, w := range a.walls {
		s.Walls = append(s.Walls, w.state())
	}
	if a.scoring != nil {
		s.Scores = a.scoring.Snapshot()
	}
	return s
}

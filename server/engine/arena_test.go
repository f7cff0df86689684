package engine

import (
	"errors"
	"math"
	"testing"

	"botarena/server/geometry"
)

const epsilon = 1e-9

func testRules() Rules {
	r := DefaultRules()
	r.InactivityTicks = 0
	return r
}

func at(x, y, dir float64) *StartPosition {
	return &StartPosition{X: x, Y: y, Direction: dir}
}

func newTestArena(t *testing.T, rules Rules, walls []WallSpec, roster ...BotSpec) *Arena {
	t.Helper()
	a, err := NewArena(rules, walls, roster, 1)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	return a
}

func step(t *testing.T, a *Arena, intents map[BotID]Intent) *Snapshot {
	t.Helper()
	snap, err := a.Step(intents)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return snap
}

func mustBot(t *testing.T, s *Snapshot, id BotID) BotState {
	t.Helper()
	b, ok := s.Bot(id)
	if !ok {
		t.Fatalf("bot %d not in snapshot", id)
	}
	return b
}

func mustScore(t *testing.T, s *Snapshot, p ParticipantID) TickScore {
	t.Helper()
	sc, ok := s.Score(p)
	if !ok {
		t.Fatalf("participant %s not in scores", p)
	}
	return sc
}

func eventsOf[T Event](events []Event) []T {
	var out []T
	for _, e := range events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestNewArena_Configuration(t *testing.T) {
	rules := testRules()

	if _, err := NewArena(rules, nil, nil, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("empty roster err = %v, want ErrConfiguration", err)
	}

	walls := []WallSpec{
		{ID: 1, X: 100, Y: 100, Width: 10, Height: 10},
		{ID: 1, X: 300, Y: 300, Width: 10, Height: 10},
	}
	if _, err := NewArena(rules, walls, []BotSpec{{Name: "a"}}, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("duplicate wall err = %v, want ErrConfiguration", err)
	}

	bad := rules
	bad.ArenaWidth = 100
	if _, err := NewArena(bad, nil, []BotSpec{{Name: "a"}}, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("small arena err = %v, want ErrConfiguration", err)
	}

	if _, err := NewArena(rules, nil, []BotSpec{{Name: "a"}, {Name: "a"}}, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("duplicate name err = %v, want ErrConfiguration", err)
	}
}

func TestNewArena_SeededSpawnIsDeterministic(t *testing.T) {
	roster := []BotSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	walls := []WallSpec{{X: 400, Y: 300, Width: 200, Height: 40, Rotation: 30}}

	a1, err := NewArena(testRules(), walls, roster, 42)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := NewArena(testRules(), walls, roster, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range a1.Last().Bots {
		other := a2.Last().Bots[i]
		if b.X != other.X || b.Y != other.Y || b.Direction != other.Direction {
			t.Errorf("bot %d spawned at (%f,%f,%f) and (%f,%f,%f)", b.ID, b.X, b.Y, b.Direction, other.X, other.Y, other.Direction)
		}
	}
}

func TestNewArena_Teams(t *testing.T) {
	a := newTestArena(t, testRules(), nil,
		BotSpec{Name: "solo", Start: at(100, 100, 0)},
		BotSpec{Name: "red1", Team: "red", Start: at(300, 100, 0)},
		BotSpec{Name: "red2", Team: "red", Start: at(500, 100, 0)},
	)
	ps := a.Participants()
	if len(ps) != 2 {
		t.Fatalf("participants = %v, want 2", ps)
	}
	red := ParticipantID{BotID: 2, TeamID: 1}
	if ps[1] != red {
		t.Errorf("team participant = %v, want %v", ps[1], red)
	}
	b3 := mustBot(t, a.Last(), 3)
	if b3.Participant != red {
		t.Errorf("red2 participant = %v, want %v", b3.Participant, red)
	}
	if a.TeamName(1) != "red" {
		t.Errorf("TeamName(1) = %q, want red", a.TeamName(1))
	}
}

func TestStep_RamDamageToStationaryBot(t *testing.T) {
	a := newTestArena(t, testRules(), nil,
		BotSpec{Name: "rammer", Start: at(100, 300, 0)},
		BotSpec{Name: "victim", Start: at(136.5, 300, 180)},
	)
	snap := step(t, a, map[BotID]Intent{1: {TargetSpeed: 8}})

	victim := mustBot(t, snap, 2)
	if victim.Energy != 297 {
		t.Errorf("victim energy = %v, want 297", victim.Energy)
	}
	rammer := mustBot(t, snap, 1)
	if math.Abs(rammer.Energy-(300-3-0.05)) > epsilon {
		t.Errorf("rammer energy = %v, want %v", rammer.Energy, 300-3-0.05)
	}
	if rammer.Speed != 0 || victim.Speed != 0 {
		t.Errorf("speeds = %v, %v, want 0, 0", rammer.Speed, victim.Speed)
	}

	rammerScore := mustScore(t, snap, ParticipantID{BotID: 1})
	if rammerScore.RamDamageScore != ScorePerRamDamage*RamDamage {
		t.Errorf("rammer ramDamageScore = %v, want %v", rammerScore.RamDamageScore, ScorePerRamDamage*RamDamage)
	}
	victimScore := mustScore(t, snap, ParticipantID{BotID: 2})
	if victimScore.RamDamageScore != 0 {
		t.Errorf("victim ramDamageScore = %v, want 0", victimScore.RamDamageScore)
	}

	hits := eventsOf[HitBotEvent](snap.Events)
	if len(hits) != 2 {
		t.Fatalf("HitBotEvents = %d, want 2", len(hits))
	}
	if !hits[0].Rammed || hits[1].Rammed {
		t.Errorf("rammed flags = %v, %v, want true, false", hits[0].Rammed, hits[1].Rammed)
	}
	if hits[0].Energy != 297 {
		t.Errorf("HitBotEvent energy = %v, want 297", hits[0].Energy)
	}
}

func TestStep_HeadOnCollisionSeparatesBots(t *testing.T) {
	a := newTestArena(t, testRules(), nil,
		BotSpec{Name: "left", Start: at(100, 300, 0)},
		BotSpec{Name: "right", Start: at(137, 300, 180)},
	)
	snap := step(t, a, map[BotID]Intent{
		1: {TargetSpeed: 8},
		2: {TargetSpeed: 8},
	})

	b1 := mustBot(t, snap, 1)
	b2 := mustBot(t, snap, 2)
	dist := math.Hypot(b1.X-b2.X, b1.Y-b2.Y)
	if math.Abs(dist-BotBoundingCircleDiameter) > epsilon {
		t.Errorf("distance = %v, want %v", dist, BotBoundingCircleDiameter)
	}
	for _, b := range []BotState{b1, b2} {
		if b.Speed != 0 {
			t.Errorf("bot %d speed = %v, want 0", b.ID, b.Speed)
		}
		if math.Abs(b.Energy-(300-RamDamage-0.05)) > epsilon {
			t.Errorf("bot %d energy = %v, want %v", b.ID, b.Energy, 300-RamDamage-0.05)
		}
	}
}

func TestStep_BulletHit(t *testing.T) {
	rules := testRules()
	rules.InitialGunHeat = 0
	a := newTestArena(t, rules, nil,
		BotSpec{Name: "shooter", Start: at(100, 300, 0)},
		BotSpec{Name: "target", Start: at(300, 300, 90)},
	)

	snap := step(t, a, map[BotID]Intent{1: {Firepower: 1}})
	if got := len(eventsOf[BulletFiredEvent](snap.Events)); got != 1 {
		t.Fatalf("BulletFiredEvents = %d, want 1", got)
	}
	if shooter := mustBot(t, snap, 1); shooter.Energy != 299 || shooter.GunHeat != CalcGunHeat(1) {
		t.Errorf("after firing energy = %v heat = %v, want 299 %v", shooter.Energy, shooter.GunHeat, CalcGunHeat(1))
	}

	var hit *BulletHitBotEvent
	prev := snap
	for range 20 {
		snap = step(t, a, nil)
		if hits := eventsOf[BulletHitBotEvent](snap.Events); len(hits) > 0 {
			hit = &hits[0]
			break
		}
		prev = snap
	}
	if hit == nil {
		t.Fatal("bullet never hit the target")
	}
	if hit.VictimID != 2 || hit.Damage != CalcBulletDamage(1) {
		t.Errorf("hit = %+v, want victim 2 damage %v", hit, CalcBulletDamage(1))
	}

	targetBefore := mustBot(t, prev, 2).Energy
	targetAfter := mustBot(t, snap, 2).Energy
	if targetBefore-targetAfter != CalcBulletDamage(1) {
		t.Errorf("target lost %v, want %v", targetBefore-targetAfter, CalcBulletDamage(1))
	}
	shooterBefore := mustBot(t, prev, 1).Energy
	shooterAfter := mustBot(t, snap, 1).Energy
	if shooterAfter-shooterBefore != 1*BulletHitEnergyGainFactor {
		t.Errorf("shooter gained %v, want %v", shooterAfter-shooterBefore, BulletHitEnergyGainFactor)
	}
	if len(snap.Bullets) != 0 {
		t.Errorf("bullets after hit = %d, want 0", len(snap.Bullets))
	}

	score := mustScore(t, snap, ParticipantID{BotID: 1})
	if score.BulletDamageScore != ScorePerBulletDamage*CalcBulletDamage(1) {
		t.Errorf("bulletDamageScore = %v, want %v", score.BulletDamageScore, ScorePerBulletDamage*CalcBulletDamage(1))
	}
}

func TestStep_BulletHitsNearestBot(t *testing.T) {
	rules := testRules()
	rules.InitialGunHeat = 0
	a := newTestArena(t, rules, nil,
		BotSpec{Name: "shooter", Start: at(100, 300, 0)},
		BotSpec{Name: "far", Start: at(240, 300, 90)},
		BotSpec{Name: "near", Start: at(200, 300, 90)},
	)
	step(t, a, map[BotID]Intent{1: {Firepower: 3}})

	for range 10 {
		snap := step(t, a, nil)
		if hits := eventsOf[BulletHitBotEvent](snap.Events); len(hits) > 0 {
			if len(hits) != 1 || hits[0].VictimID != 3 {
				t.Errorf("hits = %+v, want one hit on bot 3", hits)
			}
			return
		}
	}
	t.Fatal("bullet never hit")
}

func TestStep_BulletBlockedByWall(t *testing.T) {
	rules := testRules()
	rules.InitialGunHeat = 0
	walls := []WallSpec{{ID: 7, X: 200, Y: 300, Width: 10, Height: 100}}
	a := newTestArena(t, rules, walls,
		BotSpec{Name: "shooter", Start: at(100, 300, 0)},
		BotSpec{Name: "hidden", Start: at(300, 300, 90)},
	)
	step(t, a, map[BotID]Intent{1: {Firepower: 1}})

	for range 10 {
		snap := step(t, a, nil)
		if len(eventsOf[BulletHitBotEvent](snap.Events)) > 0 {
			t.Fatal("bullet passed through the wall")
		}
		if hits := eventsOf[BulletHitWallEvent](snap.Events); len(hits) > 0 {
			if hits[0].WallID != 7 {
				t.Errorf("wall id = %d, want 7", hits[0].WallID)
			}
			if len(snap.Bullets) != 0 {
				t.Errorf("bullets = %d, want 0", len(snap.Bullets))
			}
			return
		}
	}
	t.Fatal("bullet never hit the wall")
}

func TestStep_BotWallRecovery(t *testing.T) {
	walls := []WallSpec{{ID: 1, X: 120, Y: 300, Width: 2, Height: 100}}
	tests := []struct {
		name     string
		recovery WallRecovery
		wantX    float64
	}{
		{"clamp", WallRecoveryClamp, 100},
		{"project", WallRecoveryProject, 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := testRules()
			rules.WallRecovery = tt.recovery
			a := newTestArena(t, rules, walls,
				BotSpec{Name: "a", Start: at(100, 300, 0)},
				BotSpec{Name: "b", Start: at(600, 300, 0)},
			)
			snap := step(t, a, map[BotID]Intent{1: {TargetSpeed: 8}})

			b := mustBot(t, snap, 1)
			if math.Abs(b.X-tt.wantX) > epsilon || b.Y != 300 {
				t.Errorf("position = (%v, %v), want (%v, 300)", b.X, b.Y, tt.wantX)
			}
			if b.Speed != 0 {
				t.Errorf("speed = %v, want 0", b.Speed)
			}
			hits := eventsOf[HitWallEvent](snap.Events)
			if len(hits) != 1 || hits[0].WallID != 1 {
				t.Errorf("HitWallEvents = %+v, want one for wall 1", hits)
			}
		})
	}
}

func TestStep_ArenaBoundary(t *testing.T) {
	a := newTestArena(t, testRules(), nil,
		BotSpec{Name: "a", Start: at(18.5, 300, 180)},
		BotSpec{Name: "b", Start: at(600, 300, 0)},
	)
	snap := step(t, a, map[BotID]Intent{1: {TargetSpeed: 8}})

	b := mustBot(t, snap, 1)
	if b.X != BotBoundingCircleRadius {
		t.Errorf("x = %v, want %v", b.X, BotBoundingCircleRadius)
	}
	hits := eventsOf[HitWallEvent](snap.Events)
	if len(hits) != 1 || hits[0].WallID != 0 {
		t.Errorf("HitWallEvents = %+v, want one boundary hit", hits)
	}
}

func TestStep_LastSurvivorBonusOnce(t *testing.T) {
	rules := testRules()
	rules.DisconnectGraceTicks = 0
	a := newTestArena(t, rules, nil,
		BotSpec{Name: "a", Start: at(100, 100, 0)},
		BotSpec{Name: "b", Start: at(400, 300, 0)},
		BotSpec{Name: "c", Start: at(700, 500, 0)},
	)

	a.Disconnect(2)
	snap := step(t, a, nil)
	if got := len(eventsOf[BotDeathEvent](snap.Events)); got != 1 {
		t.Fatalf("BotDeathEvents = %d, want 1", got)
	}
	if snap.Over {
		t.Fatal("battle over with two survivors")
	}
	for _, sc := range snap.Scores {
		if sc.LastSurvivorBonus != 0 {
			t.Errorf("%s lastSurvivorBonus = %v, want 0", sc.Participant, sc.LastSurvivorBonus)
		}
	}

	a.Disconnect(3)
	snap = step(t, a, nil)
	if !snap.Over {
		t.Error("battle should be over with one survivor")
	}
	winner := mustScore(t, snap, ParticipantID{BotID: 1})
	if winner.LastSurvivorBonus != BonusPerLastSurvivor {
		t.Errorf("winner lastSurvivorBonus = %v, want %v", winner.LastSurvivorBonus, BonusPerLastSurvivor)
	}
	if winner.Rank != 1 {
		t.Errorf("winner rank = %d, want 1", winner.Rank)
	}
	for _, p := range []ParticipantID{{BotID: 2}, {BotID: 3}} {
		if sc := mustScore(t, snap, p); sc.LastSurvivorBonus != 0 {
			t.Errorf("%s lastSurvivorBonus = %v, want 0", p, sc.LastSurvivorBonus)
		}
	}

	if _, err := a.Step(nil); !errors.Is(err, ErrBattleOver) {
		t.Errorf("Step after end err = %v, want ErrBattleOver", err)
	}
}

func TestStep_MaxTicks(t *testing.T) {
	rules := testRules()
	rules.MaxTicks = 3
	a := newTestArena(t, rules, nil,
		BotSpec{Name: "a", Start: at(100, 100, 0)},
		BotSpec{Name: "b", Start: at(700, 500, 0)},
	)
	for i := 1; i <= 3; i++ {
		snap := step(t, a, nil)
		if snap.Over != (i == 3) {
			t.Errorf("tick %d over = %v", i, snap.Over)
		}
	}
	sc := mustScore(t, a.Last(), ParticipantID{BotID: 1})
	if want := 3 * ScorePerSurvival / DefaultSurvivalPeriodTicks; math.Abs(sc.SurvivalScore-want) > epsilon {
		t.Errorf("survivalScore = %v, want %v", sc.SurvivalScore, want)
	}
}

func TestStep_ScanEvents(t *testing.T) {
	walls := []WallSpec{{ID: 3, X: 400, Y: 400, Width: 20, Height: 20}}
	a := newTestArena(t, testRules(), walls,
		BotSpec{Name: "observer", Start: at(400, 200, 0)},
		BotSpec{Name: "target", Start: at(600, 200, 0)},
	)
	// 0度から90度へ掃く: 東のボットと南(+y)の壁を捉える
	var scans []ScannedBotEvent
	var wallScans []ScannedWallEvent
	snap := step(t, a, map[BotID]Intent{1: {RadarTurnRate: 45, AdjustRadarForGunTurn: true}})
	scans = append(scans, eventsOf[ScannedBotEvent](snap.Events)...)
	snap = step(t, a, map[BotID]Intent{1: {RadarTurnRate: 45, AdjustRadarForGunTurn: true}})
	scans = append(scans, eventsOf[ScannedBotEvent](snap.Events)...)
	wallScans = append(wallScans, eventsOf[ScannedWallEvent](snap.Events)...)

	var byObserver1 []ScannedBotEvent
	for _, s := range scans {
		if s.ScannedByBotID == 1 {
			byObserver1 = append(byObserver1, s)
		}
	}
	if len(byObserver1) == 0 || byObserver1[0].ScannedBotID != 2 {
		t.Errorf("observer scans = %+v, want bot 2", byObserver1)
	}

	found := false
	for _, w := range wallScans {
		if w.ScannedByBotID == 1 && w.ScannedWallID == 3 {
			found = true
			if w.Width != 20 || w.Height != 20 || w.X != 400 || w.Y != 400 {
				t.Errorf("wall scan = %+v", w)
			}
		}
	}
	if !found {
		t.Errorf("wall scans = %+v, want wall 3 by bot 1", wallScans)
	}

	perTarget := map[BotID]int{}
	for _, s := range eventsOf[ScannedBotEvent](snap.Events) {
		if s.ScannedByBotID == 1 {
			perTarget[s.ScannedBotID]++
		}
	}
	for id, n := range perTarget {
		if n > 1 {
			t.Errorf("bot %d scanned %d times in one tick", id, n)
		}
	}
}

func TestStep_TeamMessages(t *testing.T) {
	a := newTestArena(t, testRules(), nil,
		BotSpec{Name: "red1", Team: "red", Start: at(100, 100, 0)},
		BotSpec{Name: "red2", Team: "red", Start: at(300, 100, 0)},
		BotSpec{Name: "blue", Start: at(600, 400, 0)},
	)
	msgs := make([]TeamMessage, 0, 8)
	msgs = append(msgs, TeamMessage{Payload: make([]byte, MaxTeamMessageSize+1)})
	for range 7 {
		msgs = append(msgs, TeamMessage{Payload: []byte("go")})
	}
	msgs = append(msgs, TeamMessage{ReceiverID: 3, Payload: []byte("spy")})

	snap := step(t, a, map[BotID]Intent{1: {TeamMessages: msgs}})
	if got := len(eventsOf[TeamMessageEvent](snap.Events)); got != 0 {
		t.Fatalf("messages delivered in the sending tick: %d", got)
	}

	snap = step(t, a, nil)
	delivered := eventsOf[TeamMessageEvent](snap.Events)
	if len(delivered) != MaxNumberOfTeamMessagesPerTurn {
		t.Fatalf("delivered = %d, want %d", len(delivered), MaxNumberOfTeamMessagesPerTurn)
	}
	for _, m := range delivered {
		if m.SenderID != 1 || m.ReceiverID != 2 || string(m.Payload) != "go" {
			t.Errorf("message = %+v", m)
		}
	}
	if got := snap.EventsFor(3); len(eventsOf[TeamMessageEvent](got)) != 0 {
		t.Error("non-teammate received team messages")
	}
}

func TestStep_InactivityDamage(t *testing.T) {
	rules := testRules()
	rules.InactivityTicks = 2
	a := newTestArena(t, rules, nil,
		BotSpec{Name: "a", Start: at(100, 100, 0)},
		BotSpec{Name: "b", Start: at(700, 500, 0)},
	)
	step(t, a, nil)
	snap := step(t, a, nil)
	if got := mustBot(t, snap, 1).Energy; got != 300-InactivityDamage {
		t.Errorf("energy = %v, want %v", got, 300-InactivityDamage)
	}
}

func TestStep_DisconnectGrace(t *testing.T) {
	rules := testRules()
	rules.DisconnectGraceTicks = 2
	a := newTestArena(t, rules, nil,
		BotSpec{Name: "a", Start: at(100, 100, 0)},
		BotSpec{Name: "b", Start: at(400, 300, 0)},
		BotSpec{Name: "c", Start: at(700, 500, 0)},
	)
	a.Disconnect(2)
	for i := 1; i <= 2; i++ {
		if snap := step(t, a, map[BotID]Intent{2: {TargetSpeed: 8}}); !mustBot(t, snap, 2).Alive {
			t.Fatalf("bot died during grace tick %d", i)
		}
	}
	snap := step(t, a, nil)
	if mustBot(t, snap, 2).Alive {
		t.Error("bot still alive after grace period")
	}
	if b := mustBot(t, snap, 2); b.X != 400 {
		t.Errorf("disconnected bot moved to x=%v", b.X)
	}
}

func TestStep_RamKeepsVictimInsideArena(t *testing.T) {
	a := newTestArena(t, testRules(), nil,
		BotSpec{Name: "victim", Start: at(18, 300, 0)},
		BotSpec{Name: "rammer", Start: at(54.5, 300, 180)},
	)
	snap := step(t, a, map[BotID]Intent{2: {TargetSpeed: 8}})

	victim := mustBot(t, snap, 1)
	rammer := mustBot(t, snap, 2)
	if victim.X < BotBoundingCircleRadius-epsilon {
		t.Errorf("victim x = %v, want >= %v", victim.X, BotBoundingCircleRadius)
	}
	if dist := math.Hypot(victim.X-rammer.X, victim.Y-rammer.Y); math.Abs(dist-BotBoundingCircleDiameter) > epsilon {
		t.Errorf("distance = %v, want %v", dist, BotBoundingCircleDiameter)
	}
	if len(eventsOf[HitBotEvent](snap.Events)) != 2 {
		t.Errorf("HitBotEvents = %d, want 2", len(eventsOf[HitBotEvent](snap.Events)))
	}
}

func TestStep_RamKeepsVictimOutOfWall(t *testing.T) {
	walls := []WallSpec{{ID: 1, X: 200, Y: 300, Width: 40, Height: 200}}
	a := newTestArena(t, testRules(), walls,
		BotSpec{Name: "victim", Start: at(161.9, 300, 0)},
		BotSpec{Name: "rammer", Start: at(125.4, 300, 0)},
	)
	snap := step(t, a, map[BotID]Intent{2: {TargetSpeed: 8}})

	victim := mustBot(t, snap, 1)
	rammer := mustBot(t, snap, 2)
	if victim.X > 180-BotBoundingCircleRadius+epsilon {
		t.Errorf("victim x = %v, want <= %v", victim.X, 180-BotBoundingCircleRadius)
	}
	if a.walls[0].Shape.IntersectsCircle(geometry.Point{X: victim.X, Y: victim.Y}, BotBoundingCircleRadius-1e-6) {
		t.Errorf("victim at (%v, %v) overlaps the wall", victim.X, victim.Y)
	}
	if dist := math.Hypot(victim.X-rammer.X, victim.Y-rammer.Y); math.Abs(dist-BotBoundingCircleDiameter) > epsilon {
		t.Errorf("distance = %v, want %v", dist, BotBoundingCircleDiameter)
	}
}

func TestArena_PushOutOfOverlappingWalls(t *testing.T) {
	rules := testRules()
	rules.WallRecovery = WallRecoveryProject
	walls := []WallSpec{
		{ID: 1, X: 120, Y: 300, Width: 2, Height: 400},
		{ID: 2, X: 75, Y: 320, Width: 70, Height: 20},
	}
	a := newTestArena(t, rules, walls,
		BotSpec{Name: "a", Start: at(600, 100, 0)},
		BotSpec{Name: "b", Start: at(600, 500, 0)},
	)

	// 1枚目から押し出した先が2枚目に重なる位置
	got := a.pushOutOfWalls(geometry.Point{X: 105, Y: 300})
	if math.Abs(got.X-101) > epsilon || math.Abs(got.Y-292) > epsilon {
		t.Errorf("pushOutOfWalls = %v, want (101, 292)", got)
	}
	for _, w := range a.walls {
		if w.Shape.IntersectsCircle(got, BotBoundingCircleRadius-1e-6) {
			t.Errorf("position %v still overlaps wall %d", got, w.ID)
		}
	}
}

package engine

import (
	"slices"
)

// DamageKind はダメージの発生源です。
type DamageKind uint8

const (
	DamageBullet DamageKind = iota + 1
	DamageRam
)

// Damage は衝突判定が得点計算に渡すダメージ記録です。
type Damage struct {
	Kind        DamageKind
	Attacker    ParticipantID
	AttackerBot BotID
	Victim      ParticipantID
	VictimBot   BotID
	Amount      float64
	Killed      bool
}

// Score はバトル全体で積算される参加者ごとの得点です。
type Score struct {
	Participant       ParticipantID
	BulletDamageScore float64
	BulletKillBonus   float64
	RamDamageScore    float64
	RamKillBonus      float64
	SurvivalScore     float64
	LastSurvivorBonus float64
}

// TotalScore は6つの得点の合計です。読み出しのたびに計算します。
func (s *Score) TotalScore() float64 {
	return s.BulletDamageScore + s.BulletKillBonus +
		s.RamDamageScore + s.RamKillBonus +
		s.SurvivalScore + s.LastSurvivorBonus
}

// TickScore はティックごとに取得される不変の得点スナップショットです。
type TickScore struct {
	Participant       ParticipantID
	BulletDamageScore float64
	BulletKillBonus   float64
	RamDamageScore    float64
	RamKillBonus      float64
	SurvivalScore     float64
	LastSurvivorBonus float64
	TotalScore        float64
	Rank              int
}

type dealtKey struct {
	kind     DamageKind
	attacker ParticipantID
	victim   BotID
}

// Scoring は参加者ごとの Score を保持し、ティックごとの得点差分を適用します。
// 衝突や物理の状態は変更しません。
type Scoring struct {
	rules        Rules
	participants []ParticipantID
	scores       map[ParticipantID]*Score
	dealt        map[dealtKey]float64

	lastAppliedTick     int
	lastSurvivorAwarded bool
}

// NewScoring は参加者の得点表を作成します。participants の順序が同点時の順位になります。
func NewScoring(rules Rules, participants []ParticipantID) *Scoring {
	ordered := slices.Clone(participants)
	slices.SortFunc(ordered, func(a, b ParticipantID) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		default:
			return 0
		}
	})
	scores := make(map[ParticipantID]*Score, len(ordered))
	for _, p := range ordered {
		scores[p] = &Score{Participant: p}
	}
	return &Scoring{
		rules:        rules,
		participants: ordered,
		scores:       scores,
		dealt:        make(map[dealtKey]float64),
	}
}

// Score は参加者の現在の得点を返します。
func (s *Scoring) Score(p ParticipantID) (Score, bool) {
	sc, ok := s.scores[p]
	if !ok {
		return Score{}, false
	}
	return *sc, true
}

// Apply は1ティック分のダメージ記録と生存状態を得点に反映します。
// 既に適用済みのティックを再度渡した場合は何もしません。
func (s *Scoring) Apply(tick int, damages []Damage, alive []ParticipantID, eliminated []ParticipantID) {
	if tick <= s.lastAppliedTick {
		return
	}
	s.lastAppliedTick = tick

	for _, d := range damages {
		s.applyDamage(d)
	}

	perTick := s.rules.SurvivalScorePerTick()
	for _, p := range alive {
		if sc, ok := s.scores[p]; ok {
			sc.SurvivalScore += perTick
		}
	}

	if len(eliminated) > 0 && len(alive) == 1 && !s.lastSurvivorAwarded {
		if sc, ok := s.scores[alive[0]]; ok {
			sc.LastSurvivorBonus += s.rules.BonusPerLastSurvivor
			s.lastSurvivorAwarded = true
		}
	}
}

func (s *Scoring) applyDamage(d Damage) {
	// チームメイトへのダメージは得点にならない
	if d.Attacker == d.Victim {
		return
	}
	sc, ok := s.scores[d.Attacker]
	if !ok {
		return
	}
	key := dealtKey{kind: d.Kind, attacker: d.Attacker, victim: d.VictimBot}
	s.dealt[key] += d.Amount

	switch d.Kind {
	case DamageBullet:
		sc.BulletDamageScore += s.rules.ScorePerBulletDamage * d.Amount
		if d.Killed {
			sc.BulletKillBonus += s.rules.BonusPerBulletKill * s.dealt[key]
		}
	case DamageRam:
		sc.RamDamageScore += s.rules.ScorePerRamDamage * d.Amount
		if d.Killed {
			sc.RamKillBonus += s.rules.BonusPerRamKill * s.dealt[key]
		}
	}
}

// Snapshot は全参加者の TickScore を合計点の降順で返します。同点の場合は参加者の順序を保ちます。
func (s *Scoring) Snapshot() []TickScore {
	out := make([]TickScore, 0, len(s.participants))
	for _, p := range s.participants {
		sc := s.scores[p]
		out = append(out, TickScore{
			Participant:       p,
			BulletDamageScore: sc.BulletDamageScore,
			BulletKillBonus:   sc.BulletKillBonus,
			RamDamageScore:    sc.RamDamageScore,
			RamKillBonus:      sc.RamKillBonus,
			SurvivalScore:     sc.SurvivalScore,
			LastSurvivorBonus: sc.LastSurvivorBonus,
			TotalScore:        sc.TotalScore(),
		})
	}
	return RankScores(out)
}

// RankScores は合計点の降順に安定ソートし、1から順位を振ります。
func RankScores(scores []TickScore) []TickScore {
	slices.SortStableFunc(scores, func(a, b TickScore) int {
		switch {
		case a.TotalScore > b.TotalScore:
			return -1
		case a.TotalScore < b.TotalScore:
			return 1
		default:
			return 0
		}
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

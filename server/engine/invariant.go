package engine

import (
	"errors"
	"fmt"
	"math"

	"botarena/utils"
)

// ErrInvariant は内部不変条件の違反です。プログラムの欠陥として扱い、バトルを中止します。
var ErrInvariant = errors.New("internal invariant failure")

const scoreTolerance = 1e-9

// CheckInvariants はスナップショットが不変条件を満たしているかを検証します。
func CheckInvariants(s *Snapshot) error {
	for _, b := range s.Bots {
		if !utils.IsFinite(b.Energy) || b.Energy < 0 {
			return fmt.Errorf("%w: bot %d energy %f", ErrInvariant, b.ID, b.Energy)
		}
		if !utils.IsFinite(b.X) || !utils.IsFinite(b.Y) {
			return fmt.Errorf("%w: bot %d position (%f, %f)", ErrInvariant, b.ID, b.X, b.Y)
		}
		if b.Alive && b.Energy <= 0 {
			return fmt.Errorf("%w: bot %d alive with no energy", ErrInvariant, b.ID)
		}
	}
	return checkRanks(s.Scores)
}

func checkRanks(scores []TickScore) error {
	seen := make([]bool, len(scores)+1)
	byRank := make([]float64, len(scores)+1)
	for _, sc := range scores {
		if sc.Rank < 1 || sc.Rank > len(scores) || seen[sc.Rank] {
			return fmt.Errorf("%w: rank %d of %s is not a permutation of 1..%d", ErrInvariant, sc.Rank, sc.Participant, len(scores))
		}
		seen[sc.Rank] = true
		byRank[sc.Rank] = sc.TotalScore

		sum := sc.BulletDamageScore + sc.BulletKillBonus + sc.RamDamageScore +
			sc.RamKillBonus + sc.SurvivalScore + sc.LastSurvivorBonus
		if math.Abs(sum-sc.TotalScore) > scoreTolerance {
			return fmt.Errorf("%w: total %f of %s differs from component sum %f", ErrInvariant, sc.TotalScore, sc.Participant, sum)
		}
	}
	for r := 2; r <= len(scores); r++ {
		if byRank[r] > byRank[r-1] {
			return fmt.Errorf("%w: rank %d total %f exceeds rank %d total %f", ErrInvariant, r, byRank[r], r-1, byRank[r-1])
		}
	}
	return nil
}

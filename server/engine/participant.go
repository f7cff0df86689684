package engine

import "fmt"

// BotID はバトル内で一意なボットIDです。1から順に割り当てます。
type BotID int

// TeamID はチームIDです。0 はチームに属していないことを表します。
type TeamID int

// ParticipantID は得点集計の単位です。
// チームに属するボットは全員が同じ ParticipantID を持ち、BotID にはチームの代表（最小のBotID）が入ります。
type ParticipantID struct {
	BotID  BotID
	TeamID TeamID
}

func (p ParticipantID) String() string {
	if p.TeamID != 0 {
		return fmt.Sprintf("team:%d", p.TeamID)
	}
	return fmt.Sprintf("bot:%d", p.BotID)
}

// less は参加者の安定した順序です。
func (p ParticipantID) less(other ParticipantID) bool {
	if p.BotID != other.BotID {
		return p.BotID < other.BotID
	}
	return p.TeamID < other.TeamID
}

// StartPosition はボットの初期位置の指定です。
type StartPosition struct {
	X, Y      float64
	Direction float64
}

// BotSpec はロスターの1エントリです。
type BotSpec struct {
	Name  string
	Team  string
	Start *StartPosition
}

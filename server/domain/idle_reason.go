package domain

import "fmt"

type IdleReason uint8

const (
	IdleNone     IdleReason = 0
	IdleRead     IdleReason = 1 << 0
	IdleWrite    IdleReason = 1 << 1
	IdlePong     IdleReason = 1 << 2
	IdleDisabled IdleReason = 1 << 7 // timeout<=0 のとき
)

func (r IdleReason) Has(x IdleReason) bool { return r&x != 0 }

func (r IdleReason) String() string {
	if r == IdleNone {
		return "none"
	}
	if r == IdleDisabled {
		return "disabled"
	}
	out := ""
	add := func(s string) {
		if out == "" {
			out = s
			return
		}
		out += "|" + s
	}
	if r.Has(IdleRead) {
		add("read")
	}
	if r.Has(IdleWrite) {
		add("write")
	}
	if r.Has(IdlePong) {
		add("pong")
	}
	if out == "" {
		return fmt.Sprintf("unknown(%d)", r)
	}
	return out
}

// CloseReason はセッションが閉じられた理由です。
type CloseReason uint32

const (
	CloseNone CloseReason = iota
	CloseByClient
	CloseIdle
	CloseReadError
	CloseWriteError
	CloseBattleEnded
	CloseServerShutdown
)

func (r CloseReason) String() string {
	switch r {
	case CloseNone:
		return "none"
	case CloseByClient:
		return "client"
	case CloseIdle:
		return "idle"
	case CloseReadError:
		return "read_error"
	case CloseWriteError:
		return "write_error"
	case CloseBattleEnded:
		return "battle_ended"
	case CloseServerShutdown:
		return "server_shutdown"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(r))
	}
}

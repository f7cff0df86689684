package domain

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// HeartbeatService は受信が途絶えたセッションにpingメッセージを送信する死活監視サービスです。
// 毎ティック指示を送るボットにはpingを送らず、受信専用の観戦者には毎回送ります。
type HeartbeatService struct {
	pingInterval time.Duration
	session      *Session
	role         EndpointRole
	writeCh      chan<- []byte

	dropped atomic.Int64
}

// NewHeartbeatService は新しいHeartbeatServiceを生成します。
func NewHeartbeatService(pingInterval time.Duration, session *Session, role EndpointRole, writeCh chan<- []byte) *HeartbeatService {
	return &HeartbeatService{
		pingInterval: pingInterval,
		session:      session,
		role:         role,
		writeCh:      writeCh,
	}
}

// Dropped は書き込みキューが満杯で送れなかったpingの数を返します。
func (h *HeartbeatService) Dropped() int64 {
	return h.dropped.Load()
}

// Run はpingInterval間隔で受信の途絶を確認し、pingメッセージをwriteChに送信します。
// ctxがキャンセルされると終了します。
func (h *HeartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.role == RoleBot && !h.session.IsReadIdle(h.pingInterval) {
				continue
			}
			select {
			case h.writeCh <- EncodePingMessage(h.session.ID()):
				slog.DebugContext(ctx, "heartbeat: ping sent", "sessionID", h.session.ID(), "role", h.role)
			default:
				n := h.dropped.Add(1)
				slog.WarnContext(ctx, "heartbeat: write queue full, ping dropped", "sessionID", h.session.ID(), "role", h.role, "dropped", n)
			}
		}
	}
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type RoomID string

var (
	// ErrRoomClosed はルームの購読チャネルが閉じられた場合に返されるエラーです。
	ErrRoomClosed = errors.New("room subscription closed")
	// ErrInvalidRoomConfig はティックを進める期限がない設定の場合に返されるエラーです。
	ErrInvalidRoomConfig = errors.New("invalid room config")
)

var tracer = otel.Tracer("botarena/server/domain")

// RoomState はティックスケジューラの状態です。
type RoomState uint32

const (
	StateWaitingForIntents RoomState = iota
	StateSimulating
	StateBroadcasting
	StateBattleOver
)

func (s RoomState) String() string {
	switch s {
	case StateWaitingForIntents:
		return "waiting_for_intents"
	case StateSimulating:
		return "simulating"
	case StateBroadcasting:
		return "broadcasting"
	case StateBattleOver:
		return "battle_over"
	default:
		return "unknown"
	}
}

// RoomConfig はティックの進め方を決めます。
//
// TickInterval が正の場合は固定間隔でティックを進め、間隔内に届いた指示だけを使います。
// 0以下の場合は全ボットの指示が揃った時点、または TurnTimeout の経過でティックを進めます。
type RoomConfig struct {
	TickInterval time.Duration
	TurnTimeout  time.Duration
}

// Room は1つのバトルのティックスケジューラです。
// アプリケーションの状態はRunのgoroutineだけが変更します。
type Room struct {
	ID RoomID

	members   map[SessionID]struct{}
	observers map[SessionID]struct{}

	pubsub      PubSub
	application Application // 外部からアプリケーションロジックを注入できる
	config      RoomConfig

	state atomic.Uint32
	ticks atomic.Int64
}

// NewRoom はルームを生成します。
// TickInterval と TurnTimeout のどちらも正でない場合、指示の来ないボットがティックを止めるため拒否します。
func NewRoom(id RoomID, pubsub PubSub, application Application, config RoomConfig) (*Room, error) {
	if config.TickInterval <= 0 && config.TurnTimeout <= 0 {
		return nil, fmt.Errorf("%w: tick interval %v, turn timeout %v", ErrInvalidRoomConfig, config.TickInterval, config.TurnTimeout)
	}
	return &Room{
		ID:          id,
		members:     make(map[SessionID]struct{}),
		observers:   make(map[SessionID]struct{}),
		pubsub:      pubsub,
		application: application,
		config:      config,
	}, nil
}

// State は現在の状態を返します。任意のgoroutineから呼び出せます。
func (r *Room) State() RoomState {
	return RoomState(r.state.Load())
}

// Ticks は処理済みのティック数を返します。任意のgoroutineから呼び出せます。
func (r *Room) Ticks() int64 {
	return r.ticks.Load()
}

func (r *Room) setState(s RoomState) {
	r.state.Store(uint32(s))
}

// Run はバトルが終了するか ctx がキャンセルされるまでティックを進めます。
// キャンセルはティックの合間にだけ反映され、その時点の結果を全セッションに送って接続を閉じます。
// 不変条件違反のエラーはそのまま返し、再試行しません。
func (r *Room) Run(ctx context.Context) error {
	// room宛のメッセージを購読
	roomTopic := RoomTopic(r.ID)
	msgCh := r.pubsub.Subscribe(roomTopic)
	defer r.pubsub.Unsubscribe(roomTopic, msgCh)

	var tickC <-chan time.Time
	if r.config.TickInterval > 0 {
		ticker := time.NewTicker(r.config.TickInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	slog.InfoContext(ctx, "room started", "roomID", r.ID, "tickInterval", r.config.TickInterval, "turnTimeout", r.config.TurnTimeout)
	for {
		r.setState(StateWaitingForIntents)
		if err := r.collect(ctx, msgCh, tickC); err != nil {
			r.finish(ctx, "aborted")
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		r.setState(StateSimulating)
		outs, err := r.tick(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "battle aborted by invariant failure", "roomID", r.ID, "tick", r.Ticks(), "err", err)
			r.finish(ctx, "invariant failure")
			return err
		}

		r.setState(StateBroadcasting)
		r.deliver(ctx, outs, false)

		if r.application.Over() {
			r.finish(ctx, "completed")
			return nil
		}
	}
}

// collect は指示の受付期間が閉じるまでルーム宛てのメッセージを処理します。
func (r *Room) collect(ctx context.Context, msgCh <-chan Message, tickC <-chan time.Time) error {
	var deadline <-chan time.Time
	for {
		started := r.application.Started()
		if tickC == nil && started {
			if r.application.IntentsReady() {
				return nil
			}
			if deadline == nil && r.config.TurnTimeout > 0 {
				timer := time.NewTimer(r.config.TurnTimeout)
				defer timer.Stop()
				deadline = timer.C
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgCh:
			if !ok {
				return ErrRoomClosed
			}
			r.handleMessage(ctx, msg)
			// 受付中に溜まったメッセージはまとめて処理する
		RECEIVE_LOOP:
			for {
				select {
				case msg, ok := <-msgCh:
					if !ok {
						return ErrRoomClosed
					}
					r.handleMessage(ctx, msg)
				default:
					break RECEIVE_LOOP
				}
			}
		case <-tickC:
			if started {
				return nil
			}
		case <-deadline:
			slog.DebugContext(ctx, "turn timeout, missing intents treated as no-op", "roomID", r.ID, "tick", r.Ticks()+1)
			return nil
		}
	}
}

func (r *Room) tick(ctx context.Context) ([]Outbound, error) {
	n := r.ticks.Add(1)
	ctx, span := tracer.Start(ctx, "room.tick", trace.WithAttributes(
		attribute.String("room.id", string(r.ID)),
		attribute.Int64("room.tick", n),
	))
	defer span.End()

	outs, err := r.application.Tick(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("room.outbound", len(outs)))
	slog.DebugContext(ctx, "tick processed", "roomID", r.ID, "tick", n, "outbound", len(outs))
	return outs, nil
}

// handleMessage はセッションの出入りを記録し、メッセージをアプリケーションに渡します。
func (r *Room) handleMessage(ctx context.Context, msg Message) {
	frame, err := ParseFrame(msg.Data)
	if err != nil {
		slog.WarnContext(ctx, "room dropped malformed message", "sessionID", msg.SessionID, "err", err)
		return
	}
	if frame.PayloadHeader.DataType == DataTypeControl {
		switch ControlSubType(frame.PayloadHeader.SubType) {
		case ControlSubTypeObserve:
			r.observers[msg.SessionID] = struct{}{}
			slog.InfoContext(ctx, "observer joined", "roomID", r.ID, "sessionID", msg.SessionID)
			return
		case ControlSubTypeJoin:
			r.members[msg.SessionID] = struct{}{}
		case ControlSubTypeLeave:
			delete(r.members, msg.SessionID)
			if _, ok := r.observers[msg.SessionID]; ok {
				delete(r.observers, msg.SessionID)
				return
			}
		}
	}

	// アプリケーションロジックが担当する
	outs, err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data)
	if err != nil {
		slog.WarnContext(ctx, "room handle message failed", "sessionID", msg.SessionID, "err", err)
	}
	r.deliver(ctx, outs, false)
}

// finish は結果を全セッションに送り、送信後に接続を閉じさせます。
func (r *Room) finish(ctx context.Context, reason string) {
	r.setState(StateBattleOver)
	ctx = context.WithoutCancel(ctx)
	r.deliver(ctx, r.application.Result(ctx, reason), true)
	slog.InfoContext(ctx, "battle ended", "roomID", r.ID, "reason", reason, "ticks", r.Ticks())
}

func (r *Room) deliver(ctx context.Context, outs []Outbound, closeAfter bool) {
	for _, out := range outs {
		switch out.Audience {
		case AudienceSession:
			r.SendTo(ctx, out.SessionID, out.Data, closeAfter)
		case AudienceObservers:
			for sessionID := range r.observers {
				r.SendTo(ctx, sessionID, out.Data, closeAfter)
			}
		case AudienceAll:
			r.Broadcast(ctx, out.Data, closeAfter)
		}
	}
}

// Broadcast はボットと観戦者の全セッションにメッセージを送ります。
func (r *Room) Broadcast(ctx context.Context, data []byte, closeAfter bool) {
	for sessionID := range r.members {
		r.SendTo(ctx, sessionID, data, closeAfter)
	}
	for sessionID := range r.observers {
		r.SendTo(ctx, sessionID, data, closeAfter)
	}
}

func (r *Room) SendTo(ctx context.Context, sessionID SessionID, data []byte, closeAfter bool) {
	err := r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{Data: data, Close: closeAfter})
	if err != nil {
		slog.WarnContext(ctx, "room send failed", "roomID", r.ID, "sessionID", sessionID, "err", err)
	}
}

package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
)

const (
	DefaultPingInterval = 5 * time.Second
	DefaultIdleTimeout  = 30 * time.Second

	writeBufferSize = 1024
)

// EndpointRole はエンドポイントがボットか観戦者かを表します。
type EndpointRole uint8

const (
	RoleBot EndpointRole = iota
	RoleObserver
)

func (r EndpointRole) String() string {
	if r == RoleObserver {
		return "observer"
	}
	return "bot"
}

// EndpointConfig はSessionEndpointの動作設定です。
// ゼロ値の項目は既定値で補われます。PingInterval が負の場合はpingを送りません。
type EndpointConfig struct {
	Role         EndpointRole
	PingInterval time.Duration
	IdleTimeout  time.Duration
}

type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session    *Session
	connection *Connection
	pubsub     PubSub
	roomID     RoomID
	config     EndpointConfig

	ctrlCh  chan endpointEvent // 制御用チャネル
	writeCh chan []byte        // 書き込み用チャネル。nil は書き切った後に閉じる合図

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(session *Session, connection *Connection, pubsub PubSub, roomID RoomID, config EndpointConfig) (*SessionEndpoint, error) {
	if session == nil {
		return nil, ErrInitializationFailed
	}
	if connection == nil {
		return nil, ErrInitializationFailed
	}
	if pubsub == nil {
		return nil, ErrInitializationFailed
	}
	if roomID == "" {
		return nil, ErrInitializationFailed
	}
	if config.PingInterval == 0 {
		config.PingInterval = DefaultPingInterval
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	se := &SessionEndpoint{
		ctx:        ctx,
		cancel:     cancel,
		session:    session,
		connection: connection,
		pubsub:     pubsub,
		roomID:     roomID,
		config:     config,
		ctrlCh:     make(chan endpointEvent, 16),
		writeCh:    make(chan []byte, writeBufferSize),
	}
	return se, nil
}

// Run は接続が閉じられるまで読み書きのループを実行します。
// parent がキャンセルされた場合もセッションを閉じて戻ります。
func (se *SessionEndpoint) Run(parent context.Context) error {
	// 自分宛のメッセージを購読
	sessionTopic := SessionTopic(se.session.ID())
	msgCh := se.pubsub.Subscribe(sessionTopic)
	defer se.pubsub.Unsubscribe(sessionTopic, msgCh)

	stop := context.AfterFunc(parent, func() {
		se.close(CloseServerShutdown)
	})
	defer stop()

	// セッションID通知は最初に送る
	if err := se.Send(EncodeAssignMessage(se.session.ID())); err != nil {
		return err
	}
	if se.config.Role == RoleObserver {
		se.publishToRoom(se.ctx, EncodeObserveMessage(se.session.ID()))
	}

	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.subscribeLoop(ctx, msgCh)
		return nil
	})
	if se.config.PingInterval > 0 {
		heartbeat := NewHeartbeatService(se.config.PingInterval, se.session, se.config.Role, se.writeCh)
		eg.Go(func() error {
			heartbeat.Run(ctx)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return nil
}

func (se *SessionEndpoint) Send(data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) Close(ctx context.Context, reason CloseReason) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, reason: reason})
}

func (se *SessionEndpoint) ForceClose() {
	se.close(CloseServerShutdown)
}

// Session はエンドポイントが管理する論理セッションを返します。
func (se *SessionEndpoint) Session() *Session {
	return se.session
}

// ownerLoop は論理セッションの状態を監視し、必要に応じて接続の管理を行います。
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		case <-ticker.C:
			ok, reason := se.session.IsIdle(se.config.IdleTimeout)
			if ok {
				se.handleControlEvent(ctx, endpointEvent{
					kind:   evClose,
					reason: CloseIdle,
					err:    errors.New(reason.String()),
				})
			}
		}
	}
}

// readLoop は読み込みに失敗した時点で終了します。
func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		data, err := se.connection.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, reason: CloseReadError, err: err})
			}
			return
		}
		se.session.TouchRead()
		se.handleData(ctx, data)
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			if data == nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, reason: CloseBattleEnded})
				return
			}
			err := se.connection.Write(ctx, data)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, reason: CloseWriteError, err: err})
				return
			}
			se.session.TouchWrite()
		}
	}
}

// subscribeLoop はpubsubからのメッセージをwriteChに転送します。
func (se *SessionEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			if msg.Close {
				// 最後のメッセージは取りこぼさないよう空くまで待つ
				if len(msg.Data) > 0 && !se.enqueueWait(ctx, msg.Data) {
					return
				}
				se.enqueueWait(ctx, nil)
				return
			}
			select {
			case se.writeCh <- msg.Data:
				// 送信成功
			default:
				slog.WarnContext(ctx, "subscribeLoop: writeCh full, message dropped", "sessionID", se.session.ID())
			}
		}
	}
}

func (se *SessionEndpoint) enqueueWait(ctx context.Context, data []byte) bool {
	select {
	case se.writeCh <- data:
		return true
	case <-ctx.Done():
		return false
	}
}

func (se *SessionEndpoint) close(reason CloseReason) {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	// Roomに離脱を通知する。ctxは既にキャンセルされている可能性があるため使わない
	se.publishToRoom(context.Background(), EncodeLeaveMessage(se.session.ID()))
	se.cancel()
	se.session.Close(reason)
	se.connection.Close(reason.String())
	slog.Info("session closed", "sessionID", se.session.ID(), "role", se.config.Role, "reason", reason)
}

func (se *SessionEndpoint) publishToRoom(ctx context.Context, data []byte) {
	err := se.pubsub.Publish(ctx, RoomTopic(se.roomID), Message{
		SessionID: se.session.ID(),
		Data:      data,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish to room", "sessionID", se.session.ID(), "roomID", se.roomID, "err", err)
	}
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	frame, err := ParseFrame(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse frame", "sessionID", se.session.ID(), "err", err)
		return
	}
	if frame.Header.SessionID != se.session.ID().Bytes() {
		slog.WarnContext(ctx, "session ID mismatch", "expected", se.session.ID(), "got", SessionIDFromBytes(frame.Header.SessionID))
		return
	}

	switch frame.PayloadHeader.DataType {
	case DataTypeControl:
		se.handleControlMessage(ctx, ControlSubType(frame.PayloadHeader.SubType), data)
	case DataTypeIntent:
		if se.config.Role != RoleBot {
			slog.WarnContext(ctx, "observer sent intent, dropped", "sessionID", se.session.ID())
			return
		}
		// データメッセージをroom topicに転送
		se.publishToRoom(ctx, data)
	default:
		slog.WarnContext(ctx, "unexpected data type", "sessionID", se.session.ID(), "dataType", frame.PayloadHeader.DataType)
	}
}

func (se *SessionEndpoint) handleControlMessage(ctx context.Context, subType ControlSubType, data []byte) {
	switch subType {
	case ControlSubTypeJoin:
		if se.config.Role != RoleBot {
			slog.WarnContext(ctx, "observer sent join, dropped", "sessionID", se.session.ID())
			return
		}
		// room topicにJoinメッセージをpublish（アプリケーションがボットと紐付ける）
		se.publishToRoom(ctx, data)
		slog.DebugContext(ctx, "join forwarded to room", "sessionID", se.session.ID(), "roomID", se.roomID)
	case ControlSubTypeLeave:
		slog.InfoContext(ctx, "session left room", "sessionID", se.session.ID(), "roomID", se.roomID)
		se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, reason: CloseByClient})
	case ControlSubTypePong:
		se.sendCtrlEvent(ctx, endpointEvent{kind: evPong})
	case ControlSubTypePing:
		if err := se.Send(EncodePongMessage(se.session.ID())); err != nil {
			slog.WarnContext(ctx, "failed to send pong", "sessionID", se.session.ID(), "err", err)
		}
	default:
		slog.WarnContext(ctx, "unexpected control message", "sessionID", se.session.ID(), "subType", subType)
	}
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		if ev.err != nil {
			slog.InfoContext(ctx, "closing session", "sessionID", se.session.ID(), "reason", ev.reason, "err", ev.err)
		}
		se.close(ev.reason)
	case evPong:
		se.session.TouchPong()
	case evReadError, evWriteError:
		slog.InfoContext(ctx, "connection lost", "sessionID", se.session.ID(), "event", ev.kind, "err", ev.err)
		se.close(ev.reason)
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}

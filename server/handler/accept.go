package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	adapterwebsocket "botarena/server/adapter/websocket"
	"botarena/server/domain"
)

// AcceptHandler はWebSocket接続を受け付け、1接続につき1つのSessionEndpointを実行します。
type AcceptHandler struct {
	pubsub domain.PubSub
	roomID domain.RoomID
	config domain.EndpointConfig
}

// NewAcceptHandler はボット用の受付ハンドラを生成します。
func NewAcceptHandler(pubsub domain.PubSub, roomID domain.RoomID, config domain.EndpointConfig) *AcceptHandler {
	config.Role = domain.RoleBot
	return &AcceptHandler{pubsub: pubsub, roomID: roomID, config: config}
}

// NewObserveHandler は観戦者用の受付ハンドラを生成します。
func NewObserveHandler(pubsub domain.PubSub, roomID domain.RoomID, config domain.EndpointConfig) *AcceptHandler {
	config.Role = domain.RoleObserver
	return &AcceptHandler{pubsub: pubsub, roomID: roomID, config: config}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	endpoint, err := domain.NewSessionEndpoint(session, connection, h.pubsub, h.roomID, h.config)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		conn.Close(websocket.StatusInternalError, "initialization failed")
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "session_id", session.ID(), "role", h.config.Role)
	err = endpoint.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run session endpoint", "err", err)
		return
	}
}

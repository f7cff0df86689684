package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"botarena/server/domain"
	"botarena/server/handler"
)

// Route はバトルサーバーのエンドポイントを登録します。
func Route(pubsub domain.PubSub, room *domain.Room, config domain.EndpointConfig) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler.NewAcceptHandler(pubsub, room.ID, config))
	mux.Handle("/observe", handler.NewObserveHandler(pubsub, room.ID, config))
	mux.Handle("GET /healthz", handler.NewHealthHandler(room))
	return otelhttp.NewHandler(mux, "botarena")
}

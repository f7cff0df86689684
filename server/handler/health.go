package handler

import (
	"encoding/json"
	"net/http"

	"botarena/server/domain"
)

// RoomStatus はヘルスチェックで報告するルームの状態です。
type RoomStatus interface {
	State() domain.RoomState
	Ticks() int64
}

type healthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Ticks  int64  `json:"ticks"`
}

func NewHealthHandler(room RoomStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status: "ok",
			State:  room.State().String(),
			Ticks:  room.Ticks(),
		})
	}
}

package domain

import "context"

// Audience は送信メッセージの宛先の種類です。
type Audience uint8

const (
	// AudienceSession は SessionID で指定した1セッション宛てです。
	AudienceSession Audience = iota
	// AudienceObservers は観戦者全員宛てです。
	AudienceObservers
	// AudienceAll はボット・観戦者を問わずルームの全セッション宛てです。
	AudienceAll
)

// Outbound はアプリケーションが生成した送信メッセージです。
type Outbound struct {
	Audience  Audience
	SessionID SessionID
	Data      []byte
}

//go:generate go tool mockgen -destination=./mocks/application_mock.go -package=mocks . Application

// Application はRoomに注入されるバトルのロジックです。
// すべてのメソッドはRoomのgoroutineからのみ呼び出されます。
type Application interface {
	// HandleMessage はセッションから届いたJoin・Leave・Intentメッセージを処理します。
	// 送り返すメッセージがあれば返します。
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) ([]Outbound, error)
	// Started は全ボットが揃いティックを進められる状態かを返します。
	Started() bool
	// IntentsReady は次のティックの指示が接続中の全ボットから揃ったかを返します。
	IntentsReady() bool
	// Tick はティックを1つ進め、送信メッセージを返します。
	Tick(ctx context.Context) ([]Outbound, error)
	// Over はバトルが終了したかを返します。
	Over() bool
	// Result はバトル終了時に全セッションへ送る結果メッセージを返します。
	Result(ctx context.Context, reason string) []Outbound
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"botarena/server/domain"
	"botarena/server/engine"
)

var (
	// ErrUnknownBot はロスターにない名前でJoinした場合のエラーです。
	ErrUnknownBot = fmt.Errorf("%w: unknown bot", domain.ErrProtocol)
	// ErrAlreadyJoined は接続中のボットに別のセッションがJoinした場合のエラーです。
	ErrAlreadyJoined = fmt.Errorf("%w: bot already joined", domain.ErrProtocol)
	// ErrNotJoined はJoin前に指示を送った場合のエラーです。
	ErrNotJoined = fmt.Errorf("%w: session has not joined", domain.ErrProtocol)
	// ErrStaleIntent は既に処理したティック向けの指示です。
	ErrStaleIntent = fmt.Errorf("%w: stale intent", domain.ErrProtocol)
	// ErrInvalidToken は参加トークンの検証に失敗した場合のエラーです。
	ErrInvalidToken = fmt.Errorf("%w: invalid join token", domain.ErrProtocol)
)

// IdentityVerifier はJoinトークンを検証してロスター上のボット名を返します。
type IdentityVerifier interface {
	Verify(token string) (name string, err error)
}

// BattleApplication は1つのアリーナを所有し、受信メッセージを指示に変換してティックを進めます。
// domain.Room のgoroutineからのみ呼び出されます。
type BattleApplication struct {
	arena    *engine.Arena
	verifier IdentityVerifier

	bots     map[domain.SessionID]engine.BotID
	sessions map[engine.BotID]domain.SessionID
	intents  map[engine.BotID]engine.Intent
	started  bool
}

var _ domain.Application = (*BattleApplication)(nil)

// NewBattleApplication は arena を進めるアプリケーションを生成します。
// verifier が nil の場合、Joinのペイロードをそのままボット名として扱います。
func NewBattleApplication(arena *engine.Arena, verifier IdentityVerifier) *BattleApplication {
	return &BattleApplication{
		arena:    arena,
		verifier: verifier,
		bots:     make(map[domain.SessionID]engine.BotID),
		sessions: make(map[engine.BotID]domain.SessionID),
		intents:  make(map[engine.BotID]engine.Intent),
	}
}

func (app *BattleApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) ([]domain.Outbound, error) {
	frame, err := domain.ParseFrame(data)
	if err != nil {
		return nil, err
	}

	switch frame.PayloadHeader.DataType {
	case domain.DataTypeIntent:
		return nil, app.handleIntent(ctx, sessionID, frame)
	case domain.DataTypeControl:
		return app.handleControl(ctx, sessionID, frame)
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", frame.PayloadHeader.DataType)
		return nil, nil
	}
}

func (app *BattleApplication) handleControl(ctx context.Context, sessionID domain.SessionID, frame *domain.Frame) ([]domain.Outbound, error) {
	switch domain.ControlSubType(frame.PayloadHeader.SubType) {
	case domain.ControlSubTypeJoin:
		wasStarted := app.started
		if err := app.join(ctx, sessionID, string(frame.Payload)); err != nil {
			return []domain.Outbound{{
				Audience:  domain.AudienceSession,
				SessionID: sessionID,
				Data:      domain.EncodeErrorMessage(sessionID, err.Error()),
			}}, err
		}
		if !wasStarted && app.started {
			// 開始時点の状態を全員に送り、最初の指示を促す
			return app.snapshotMessages(ctx, app.arena.Last()), nil
		}
		if wasStarted {
			// 再接続したボットには最新の状態だけを送る
			return app.botMessage(ctx, sessionID, app.bots[sessionID], app.arena.Last()), nil
		}
	case domain.ControlSubTypeLeave:
		app.leave(ctx, sessionID)
	default:
		slog.WarnContext(ctx, "unknown control subtype", "subType", domain.ControlSubType(frame.PayloadHeader.SubType))
	}
	return nil, nil
}

func (app *BattleApplication) join(ctx context.Context, sessionID domain.SessionID, token string) error {
	name := token
	if app.verifier != nil {
		verified, err := app.verifier.Verify(token)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		name = verified
	}
	id, ok := app.arena.BotIDByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBot, name)
	}
	if bound, ok := app.bots[sessionID]; ok {
		if bound == id {
			return nil
		}
		return fmt.Errorf("%w: session already bound to bot %d", ErrAlreadyJoined, bound)
	}
	if _, ok := app.sessions[id]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyJoined, name)
	}

	app.bots[sessionID] = id
	app.sessions[id] = sessionID
	// 開始前に抜けたボットも切断扱いのままにしない
	app.arena.Reconnect(id)
	slog.InfoContext(ctx, "bot joined", "sessionID", sessionID, "bot", name, "botID", id)

	if !app.started && len(app.sessions) == len(app.arena.Last().Bots) {
		app.started = true
		slog.InfoContext(ctx, "all bots joined, battle started", "bots", len(app.sessions))
	}
	return nil
}

func (app *BattleApplication) leave(ctx context.Context, sessionID domain.SessionID) {
	id, ok := app.bots[sessionID]
	if !ok {
		return
	}
	delete(app.bots, sessionID)
	delete(app.sessions, id)
	delete(app.intents, id)
	app.arena.Disconnect(id)
	slog.InfoContext(ctx, "bot disconnected", "sessionID", sessionID, "botID", id)
}

func (app *BattleApplication) handleIntent(ctx context.Context, sessionID domain.SessionID, frame *domain.Frame) error {
	id, ok := app.bots[sessionID]
	if !ok {
		return ErrNotJoined
	}
	payload, err := domain.ParseIntentPayload(frame.Payload)
	if err != nil {
		return err
	}
	next := uint32(app.arena.Tick() + 1)
	if payload.Turn != 0 && payload.Turn != next {
		return fmt.Errorf("%w: turn %d, next %d", ErrStaleIntent, payload.Turn, next)
	}

	intent := engine.Intent{
		TurnRate:              payload.TurnRate,
		GunTurnRate:           payload.GunTurnRate,
		RadarTurnRate:         payload.RadarTurnRate,
		TargetSpeed:           payload.TargetSpeed,
		Firepower:             payload.Firepower,
		AdjustGunForBodyTurn:  payload.AdjustGunForBodyTurn,
		AdjustRadarForGunTurn: payload.AdjustRadarForGunTurn,
	}
	for _, m := range payload.TeamMessages {
		intent.TeamMessages = append(intent.TeamMessages, engine.TeamMessage{
			ReceiverID: engine.BotID(m.ReceiverID),
			Payload:    m.Payload,
		})
	}
	app.intents[id] = intent
	slog.DebugContext(ctx, "intent received", "botID", id, "turn", next)
	return nil
}

func (app *BattleApplication) Started() bool {
	return app.started
}

// IntentsReady は接続中で生存している全ボットの指示が揃ったかを返します。
func (app *BattleApplication) IntentsReady() bool {
	for id := range app.sessions {
		if !app.alive(id) {
			continue
		}
		if _, ok := app.intents[id]; !ok {
			return false
		}
	}
	return true
}

func (app *BattleApplication) alive(id engine.BotID) bool {
	b, ok := app.arena.Last().Bot(id)
	return ok && b.Alive
}

// Tick はティックを1つ進め、ボットごとのメッセージと観戦者向けのメッセージを返します。
func (app *BattleApplication) Tick(ctx context.Context) ([]domain.Outbound, error) {
	snap, err := app.arena.Step(app.intents)
	clear(app.intents)
	if err != nil {
		if errors.Is(err, engine.ErrBattleOver) {
			return nil, nil
		}
		return nil, err
	}

	return app.snapshotMessages(ctx, snap), nil
}

// snapshotMessages は接続中の各ボット宛てと観戦者宛てのメッセージを組み立てます。
// エンコードに失敗したメッセージはログに残して送りません。
func (app *BattleApplication) snapshotMessages(ctx context.Context, snap *engine.Snapshot) []domain.Outbound {
	outs := make([]domain.Outbound, 0, len(app.sessions)+1)
	for id, sessionID := range app.sessions {
		outs = append(outs, app.botMessage(ctx, sessionID, id, snap)...)
	}
	data, err := encodeObserverTick(snap)
	if err != nil {
		slog.WarnContext(ctx, "failed to encode observer tick", "tick", snap.Tick, "err", err)
		return outs
	}
	return append(outs, domain.Outbound{Audience: domain.AudienceObservers, Data: data})
}

func (app *BattleApplication) botMessage(ctx context.Context, sessionID domain.SessionID, id engine.BotID, snap *engine.Snapshot) []domain.Outbound {
	data, err := encodeBotTick(sessionID, snap, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to encode bot tick", "botID", id, "err", err)
		return nil
	}
	return []domain.Outbound{{Audience: domain.AudienceSession, SessionID: sessionID, Data: data}}
}

func (app *BattleApplication) Over() bool {
	return app.arena.Over()
}

// Result は最後に確定した得点で結果を組み立てます。
func (app *BattleApplication) Result(ctx context.Context, reason string) []domain.Outbound {
	result := app.Standings(reason)
	for _, sc := range result.Scores {
		slog.InfoContext(ctx, "final ranking",
			"rank", sc.Rank,
			"participantId", sc.ParticipantID,
			"teamId", sc.TeamID,
			"totalScore", sc.TotalScore,
		)
	}
	data, err := encodeBattleResult(result)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode battle result", "err", err)
		return nil
	}
	return []domain.Outbound{{Audience: domain.AudienceAll, Data: data}}
}

// Standings は最後に確定した順位を返します。
func (app *BattleApplication) Standings(reason string) BattleResult {
	last := app.arena.Last()
	return BattleResult{Reason: reason, Tick: last.Tick, Scores: ScoreViews(last.Scores)}
}

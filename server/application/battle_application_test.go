package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"botarena/server/domain"
	"botarena/server/engine"
)

func newTestArena(t *testing.T) *engine.Arena {
	t.Helper()
	roster := []engine.BotSpec{
		{Name: "alpha", Start: &engine.StartPosition{X: 100, Y: 100, Direction: 0}},
		{Name: "beta", Start: &engine.StartPosition{X: 600, Y: 400, Direction: 180}},
	}
	arena, err := engine.NewArena(engine.DefaultRules(), nil, roster, 1)
	if err != nil {
		t.Fatalf("NewArena failed: %v", err)
	}
	return arena
}

func joinMessage(t *testing.T, sessionID domain.SessionID, token string) []byte {
	t.Helper()
	data, err := domain.EncodeJoinMessage(sessionID, token)
	if err != nil {
		t.Fatalf("EncodeJoinMessage failed: %v", err)
	}
	return data
}

func intentMessage(t *testing.T, sessionID domain.SessionID, intent domain.IntentPayload) []byte {
	t.Helper()
	payload, err := intent.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data, err := domain.EncodeMessage(sessionID, domain.DataTypeIntent, 0, payload)
	if err != nil {
		t.Fatalf("EncodeMessage failed: %v", err)
	}
	return data
}

func mustHandle(t *testing.T, app *BattleApplication, sessionID domain.SessionID, data []byte) []domain.Outbound {
	t.Helper()
	outs, err := app.HandleMessage(context.Background(), sessionID, data)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	return outs
}

type stubVerifier map[string]string

func (v stubVerifier) Verify(token string) (string, error) {
	name, ok := v[token]
	if !ok {
		return "", errors.New("bad signature")
	}
	return name, nil
}

func TestBattleApplication_JoinStartsBattle(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), nil)
	alpha := domain.NewSessionID()
	beta := domain.NewSessionID()

	if outs := mustHandle(t, app, alpha, joinMessage(t, alpha, "alpha")); len(outs) != 0 {
		t.Errorf("len(outs) = %d after one join, want 0", len(outs))
	}
	if app.Started() {
		t.Fatal("Started() = true after one join, want false")
	}
	outs := mustHandle(t, app, beta, joinMessage(t, beta, "beta"))
	if !app.Started() {
		t.Fatal("Started() = false after all joins, want true")
	}

	// 開始時点のスナップショットが各ボットと観戦者に届く
	if len(outs) != 3 {
		t.Fatalf("len(outs) = %d, want 3", len(outs))
	}
	for _, out := range outs {
		if out.Audience != domain.AudienceSession {
			continue
		}
		frame, err := domain.ParseFrame(out.Data)
		if err != nil {
			t.Fatalf("ParseFrame failed: %v", err)
		}
		msg, err := DecodeBotTick(frame.Payload)
		if err != nil {
			t.Fatalf("DecodeBotTick failed: %v", err)
		}
		if msg.Tick != 0 {
			t.Errorf("Tick = %d, want 0", msg.Tick)
		}
	}
}

func TestBattleApplication_JoinRejected(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), nil)
	alpha := domain.NewSessionID()
	mustHandle(t, app, alpha, joinMessage(t, alpha, "alpha"))

	tests := []struct {
		name    string
		session domain.SessionID
		token   string
		wantErr error
	}{
		{"unknown bot", domain.NewSessionID(), "gamma", ErrUnknownBot},
		{"bot taken by other session", domain.NewSessionID(), "alpha", ErrAlreadyJoined},
		{"session bound to other bot", alpha, "beta", ErrAlreadyJoined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outs, err := app.HandleMessage(context.Background(), tt.session, joinMessage(t, tt.session, tt.token))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, domain.ErrProtocol) {
				t.Errorf("err = %v, want wrapping ErrProtocol", err)
			}
			if len(outs) != 1 {
				t.Fatalf("len(outs) = %d, want 1", len(outs))
			}
			frame, err := domain.ParseFrame(outs[0].Data)
			if err != nil {
				t.Fatalf("ParseFrame failed: %v", err)
			}
			if got := domain.ControlSubType(frame.PayloadHeader.SubType); got != domain.ControlSubTypeError {
				t.Errorf("subType = %v, want %v", got, domain.ControlSubTypeError)
			}
			if outs[0].Audience != domain.AudienceSession || outs[0].SessionID != tt.session {
				t.Errorf("outbound = %+v, want session %s", outs[0], tt.session)
			}
		})
	}
	if app.Started() {
		t.Error("Started() = true, want false")
	}
}

func TestBattleApplication_JoinWithVerifier(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), stubVerifier{"token-a": "alpha"})
	alpha := domain.NewSessionID()

	mustHandle(t, app, alpha, joinMessage(t, alpha, "token-a"))

	other := domain.NewSessionID()
	_, err := app.HandleMessage(context.Background(), other, joinMessage(t, other, "beta"))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want %v", err, ErrInvalidToken)
	}
}

func TestBattleApplication_IntentRejected(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), nil)
	alpha := domain.NewSessionID()

	_, err := app.HandleMessage(context.Background(), alpha, intentMessage(t, alpha, domain.IntentPayload{}))
	if !errors.Is(err, ErrNotJoined) {
		t.Errorf("err = %v, want %v", err, ErrNotJoined)
	}

	mustHandle(t, app, alpha, joinMessage(t, alpha, "alpha"))
	_, err = app.HandleMessage(context.Background(), alpha, intentMessage(t, alpha, domain.IntentPayload{Turn: 5}))
	if !errors.Is(err, ErrStaleIntent) {
		t.Errorf("err = %v, want %v", err, ErrStaleIntent)
	}
}

func TestBattleApplication_Tick(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), nil)
	alpha := domain.NewSessionID()
	beta := domain.NewSessionID()
	mustHandle(t, app, alpha, joinMessage(t, alpha, "alpha"))
	mustHandle(t, app, beta, joinMessage(t, beta, "beta"))

	if app.IntentsReady() {
		t.Fatal("IntentsReady() = true before intents, want false")
	}
	mustHandle(t, app, alpha, intentMessage(t, alpha, domain.IntentPayload{TargetSpeed: 8, Turn: 1}))
	if app.IntentsReady() {
		t.Fatal("IntentsReady() = true with one intent, want false")
	}
	mustHandle(t, app, beta, intentMessage(t, beta, domain.IntentPayload{}))
	if !app.IntentsReady() {
		t.Fatal("IntentsReady() = false with all intents, want true")
	}

	outs, err := app.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if len(outs) != 3 {
		t.Fatalf("len(outs) = %d, want 3", len(outs))
	}
	if app.IntentsReady() {
		t.Error("IntentsReady() = true after tick, want false")
	}

	var observers int
	for _, out := range outs {
		frame, err := domain.ParseFrame(out.Data)
		if err != nil {
			t.Fatalf("ParseFrame failed: %v", err)
		}
		if frame.PayloadHeader.DataType != domain.DataTypeTick {
			t.Errorf("dataType = %v, want %v", frame.PayloadHeader.DataType, domain.DataTypeTick)
		}
		if out.Audience == domain.AudienceObservers {
			observers++
			continue
		}
		msg, err := DecodeBotTick(frame.Payload)
		if err != nil {
			t.Fatalf("DecodeBotTick failed: %v", err)
		}
		if msg.Tick != 1 {
			t.Errorf("Tick = %d, want 1", msg.Tick)
		}
		wantName := "alpha"
		if out.SessionID == beta {
			wantName = "beta"
		}
		if msg.Self.Name != wantName {
			t.Errorf("Self.Name = %s, want %s", msg.Self.Name, wantName)
		}
		if wantName == "alpha" && msg.Self.Speed != engine.Acceleration {
			t.Errorf("Self.Speed = %v, want %v", msg.Self.Speed, engine.Acceleration)
		}
	}
	if observers != 1 {
		t.Errorf("observer messages = %d, want 1", observers)
	}
}

func TestBattleApplication_LeaveSkipsIntent(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), nil)
	alpha := domain.NewSessionID()
	beta := domain.NewSessionID()
	mustHandle(t, app, alpha, joinMessage(t, alpha, "alpha"))
	mustHandle(t, app, beta, joinMessage(t, beta, "beta"))

	mustHandle(t, app, alpha, intentMessage(t, alpha, domain.IntentPayload{}))
	mustHandle(t, app, beta, domain.EncodeLeaveMessage(beta))
	if !app.IntentsReady() {
		t.Error("IntentsReady() = false after leave, want true")
	}

	// 猶予期間中の再接続
	rejoin := domain.NewSessionID()
	outs := mustHandle(t, app, rejoin, joinMessage(t, rejoin, "beta"))
	if len(outs) != 1 || outs[0].SessionID != rejoin {
		t.Errorf("outs = %+v, want one snapshot for the rejoined session", outs)
	}
	if app.IntentsReady() {
		t.Error("IntentsReady() = true after rejoin, want false")
	}
}

func TestBattleApplication_Result(t *testing.T) {
	app := NewBattleApplication(newTestArena(t), nil)
	alpha := domain.NewSessionID()
	beta := domain.NewSessionID()
	mustHandle(t, app, alpha, joinMessage(t, alpha, "alpha"))
	mustHandle(t, app, beta, joinMessage(t, beta, "beta"))
	if _, err := app.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	outs := app.Result(context.Background(), "completed")
	if len(outs) != 1 {
		t.Fatalf("len(outs) = %d, want 1", len(outs))
	}
	if outs[0].Audience != domain.AudienceAll {
		t.Errorf("Audience = %v, want %v", outs[0].Audience, domain.AudienceAll)
	}
	frame, err := domain.ParseFrame(outs[0].Data)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if got := domain.ControlSubType(frame.PayloadHeader.SubType); got != domain.ControlSubTypeBattleEnded {
		t.Errorf("subType = %v, want %v", got, domain.ControlSubTypeBattleEnded)
	}
	var result BattleResult
	if err := json.Unmarshal(frame.Payload, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if result.Reason != "completed" {
		t.Errorf("Reason = %s, want completed", result.Reason)
	}
	if result.Tick != 1 {
		t.Errorf("Tick = %d, want 1", result.Tick)
	}
	if len(result.Scores) != 2 {
		t.Fatalf("len(Scores) = %d, want 2", len(result.Scores))
	}
	for _, sc := range result.Scores {
		if sc.Rank < 1 || sc.Rank > 2 {
			t.Errorf("Rank = %d, want 1 or 2", sc.Rank)
		}
	}
}

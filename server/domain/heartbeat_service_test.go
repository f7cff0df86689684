package domain_test

import (
	"context"
	"testing"
	"time"

	domain "botarena/server/domain"
)

func TestHeartbeatService_SendsPingToWriteCh(t *testing.T) {
	session := domain.NewSession()
	writeCh := make(chan []byte, 16)

	hb := domain.NewHeartbeatService(50*time.Millisecond, session, domain.RoleBot, writeCh)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go hb.Run(ctx)

	// 受信のないセッションには少なくとも1つのpingが送信される
	select {
	case msg := <-writeCh:
		if msg == nil {
			t.Fatal("received nil message")
		}
		if len(msg) != domain.HeaderSize+domain.PayloadHeaderSize {
			t.Fatalf("unexpected message size: got %d, want %d", len(msg), domain.HeaderSize+domain.PayloadHeaderSize)
		}
		frame, err := domain.ParseFrame(msg)
		if err != nil {
			t.Fatalf("ParseFrame failed: %v", err)
		}
		if domain.ControlSubType(frame.PayloadHeader.SubType) != domain.ControlSubTypePing {
			t.Errorf("SubType = %v, want ping", domain.ControlSubType(frame.PayloadHeader.SubType))
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for ping message")
	}
}

func TestHeartbeatService_SkipsActiveSession(t *testing.T) {
	session := domain.NewSession()
	writeCh := make(chan []byte, 16)

	hb := domain.NewHeartbeatService(100*time.Millisecond, session, domain.RoleBot, writeCh)

	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()

	go hb.Run(ctx)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			session.TouchRead()
		case <-writeCh:
			t.Fatal("ping sent to a session that is still receiving")
		}
	}
}

func TestHeartbeatService_StopsOnContextCancel(t *testing.T) {
	session := domain.NewSession()
	writeCh := make(chan []byte, 16)

	hb := domain.NewHeartbeatService(50*time.Millisecond, session, domain.RoleBot, writeCh)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hb.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
		// 正常終了
	case <-time.After(1 * time.Second):
		t.Fatal("HeartbeatService did not stop after context cancel")
	}
}

func TestHeartbeatService_DropsWhenWriteChFull(t *testing.T) {
	session := domain.NewSession()
	// バッファサイズ0でwriteChが常に満杯になるようにする
	writeCh := make(chan []byte)

	hb := domain.NewHeartbeatService(50*time.Millisecond, session, domain.RoleBot, writeCh)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		hb.Run(ctx)
		close(done)
	}()

	// ブロックせずにRunが完了する（dropしてpanicしない）ことを確認
	select {
	case <-done:
		// 正常終了
	case <-time.After(1 * time.Second):
		t.Fatal("HeartbeatService blocked on full writeCh")
	}
	if hb.Dropped() == 0 {
		t.Error("Dropped() = 0, want at least one dropped ping")
	}
}

func TestHeartbeatService_PingsActiveObserver(t *testing.T) {
	session := domain.NewSession()
	writeCh := make(chan []byte, 16)

	hb := domain.NewHeartbeatService(50*time.Millisecond, session, domain.RoleObserver, writeCh)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go hb.Run(ctx)

	// 観戦者は受信があってもpingの対象になる
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			session.TouchRead()
		case <-writeCh:
			return
		case <-ctx.Done():
			t.Fatal("timed out waiting for observer ping")
		}
	}
}

package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionID はセッションを一意に識別するIDです。ワイヤ上では16バイトで表現します。
type SessionID uuid.UUID

// NewSessionID はランダムなSessionIDを生成します。
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// SessionIDFromBytes はヘッダーの16バイトからSessionIDを復元します。
func SessionIDFromBytes(b [16]byte) SessionID {
	return SessionID(b)
}

// ParseSessionID は文字列表現からSessionIDをパースします。
func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(id), nil
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

func (id SessionID) Bytes() [16]byte {
	return [16]byte(id)
}

func (id SessionID) IsEmpty() bool {
	return id == SessionID{}
}

// Session は1接続の論理的な接続状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead  atomic.Int64
	lastWrite atomic.Int64
	lastPong  atomic.Int64

	// lifecycle
	closed      atomic.Bool
	closeReason atomic.Uint32
}

func NewSession() *Session {
	s := &Session{
		id: NewSessionID(),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastWrite.Store(now)
	s.lastPong.Store(now)
	return s
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
}

func (s *Session) TouchWrite() {
	s.lastWrite.Store(time.Now().UnixNano())
}

func (s *Session) TouchPong() {
	s.lastPong.Store(time.Now().UnixNano())
}

// Close はセッションを終了状態にします。既に終了していた場合は false を返します。
func (s *Session) Close(reason CloseReason) bool {
	if s.closed.CompareAndSwap(false, true) {
		s.closeReason.Store(uint32(reason))
		return true
	}
	return false
}

func (s *Session) CloseReason() CloseReason {
	return CloseReason(s.closeReason.Load())
}

// IsIdle は読み込みかPongが timeout を超えて途絶えているかを返します。
// サーバーが定期的にpingを送るため、書き込みの途絶は判定に含めません。
func (s *Session) IsIdle(timeout time.Duration) (bool, IdleReason) {
	if timeout <= 0 {
		return false, IdleDisabled
	}
	var reason IdleReason
	if s.IsReadIdle(timeout) {
		reason |= IdleRead
	}
	if s.IsPongIdle(timeout) {
		reason |= IdlePong
	}
	return reason == IdleRead|IdlePong, reason
}

func (s *Session) IsReadIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastRead.Load()), timeout)
}

func (s *Session) IsWriteIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastWrite.Load()), timeout)
}

func (s *Session) IsPongIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastPong.Load()), timeout)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func isIdleSince(last time.Time, timeout time.Duration) bool {
	return time.Since(last) > timeout
}

func unixNanoToTime(nano int64) time.Time {
	return time.Unix(0, nano)
}

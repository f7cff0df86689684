package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

//go:generate go tool mockgen -destination=./mocks/pubsub_mock.go -package=mocks . PubSub

// ErrTopicFull は購読者のチャネルが満杯でメッセージを配送できなかった場合に返されるエラーです。
var ErrTopicFull = errors.New("subscriber channel is full")

// Topic はメッセージの配送先です。
type Topic string

// SessionTopic はセッション宛てのトピックです。
func SessionTopic(id SessionID) Topic {
	return Topic("session:" + id.String())
}

// RoomTopic はルーム宛てのトピックです。
func RoomTopic(id RoomID) Topic {
	return Topic("room:" + string(id))
}

// Message はPubSubで配送されるメッセージです。
type Message struct {
	SessionID SessionID
	Data      []byte
	// Close が true の場合、受信したエンドポイントは Data を送信した後に接続を閉じます。
	Close bool
}

// PubSub はセッションとルームをつなぐメッセージバスです。
type PubSub interface {
	Subscribe(topic Topic) <-chan Message
	Unsubscribe(topic Topic, ch <-chan Message)
	Publish(ctx context.Context, topic Topic, msg Message) error
}

// SimplePubSub はプロセス内で完結するPubSubの実装です。
// Publish はブロックせず、満杯の購読者にはメッセージを届けません。
type SimplePubSub struct {
	mu          sync.RWMutex
	subscribers map[Topic]map[<-chan Message]chan Message
	bufferSize  int
}

func NewSimplePubSub(bufferSize int) *SimplePubSub {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &SimplePubSub{
		subscribers: make(map[Topic]map[<-chan Message]chan Message),
		bufferSize:  bufferSize,
	}
}

func (p *SimplePubSub) Subscribe(topic Topic) <-chan Message {
	ch := make(chan Message, p.bufferSize)
	p.mu.Lock()
	defer p.mu.Unlock()
	subs, ok := p.subscribers[topic]
	if !ok {
		subs = make(map[<-chan Message]chan Message)
		p.subscribers[topic] = subs
	}
	subs[ch] = ch
	return ch
}

// Unsubscribe は購読を解除してチャネルを閉じます。
func (p *SimplePubSub) Unsubscribe(topic Topic, ch <-chan Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs, ok := p.subscribers[topic]
	if !ok {
		return
	}
	if c, ok := subs[ch]; ok {
		delete(subs, ch)
		close(c)
	}
	if len(subs) == 0 {
		delete(p.subscribers, topic)
	}
}

func (p *SimplePubSub) Publish(ctx context.Context, topic Topic, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	var dropped bool
	for _, c := range p.subscribers[topic] {
		select {
		case c <- msg:
		default:
			dropped = true
		}
	}
	if dropped {
		slog.WarnContext(ctx, "pubsub: subscriber full, message dropped", "topic", topic)
		return ErrTopicFull
	}
	return nil
}

package domain

import "context"

// StatusNormalClosure はWebSocketの正常終了コードです。
const StatusNormalClosure int32 = 1000

type ConnectionID string

// Connection は物理的な接続を表します。
type Connection struct {
	SessionID    SessionID
	ConnectionID ConnectionID
	transport    Transport
}

func NewConnection(sessionID SessionID, transport Transport) *Connection {
	return &Connection{
		SessionID:    sessionID,
		ConnectionID: ConnectionID(sessionID.String()),
		transport:    transport,
	}
}

func (c *Connection) Write(ctx context.Context, data []byte) error {
	return c.transport.Write(ctx, data)
}

func (c *Connection) Read(ctx context.Context) ([]byte, error) {
	return c.transport.Read(ctx)
}

func (c *Connection) Close(reason string) {
	_ = c.transport.Close(StatusNormalClosure, reason)
}

package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// バイトオーダー: リトルエンディアン
var byteOrder = binary.LittleEndian

const (
	HeaderSize            = 25
	PayloadHeaderSize     = 2
	IntentFixedSize       = 46
	TeamMessageHeaderSize = 4

	// ProtocolVersion は現在のプロトコルバージョンです。
	ProtocolVersion = 1

	// MaxPayloadSize は Header.Length に収まるペイロードの最大長です。
	MaxPayloadSize = math.MaxUint16 - PayloadHeaderSize
)

// Header はメッセージヘッダー (25バイト)
//
//	version    u8      (1)
//	sessionID  [16]byte (16)
//	seq        u16     (2)
//	length     u16     (2)  - ペイロードヘッダーを含むペイロード長
//	timestamp  u32     (4)
type Header struct {
	Version   uint8
	SessionID [16]byte
	Seq       uint16
	Length    uint16
	Timestamp uint32
}

// DataType はメッセージの種別
type DataType uint8

const (
	DataTypeIntent  DataType = 1
	DataTypeTick    DataType = 2
	DataTypeControl DataType = 4
)

func (d DataType) String() string {
	switch d {
	case DataTypeIntent:
		return "intent"
	case DataTypeTick:
		return "tick"
	case DataTypeControl:
		return "control"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// TickSubType はtickメッセージのサブタイプ
type TickSubType uint8

const (
	// TickSubTypeBot はボット1台に絞ったティック情報です。
	TickSubTypeBot TickSubType = 1
	// TickSubTypeObserver はアリーナ全体のティック情報です。
	TickSubTypeObserver TickSubType = 2
)

// ControlSubType はcontrolメッセージのサブタイプ
type ControlSubType uint8

const (
	ControlSubTypeJoin        ControlSubType = 1
	ControlSubTypeLeave       ControlSubType = 2
	ControlSubTypeKick        ControlSubType = 3
	ControlSubTypePing        ControlSubType = 4
	ControlSubTypePong        ControlSubType = 5
	ControlSubTypeError       ControlSubType = 6
	ControlSubTypeAssign      ControlSubType = 7
	ControlSubTypeBattleEnded ControlSubType = 8
	ControlSubTypeObserve     ControlSubType = 9
)

func (c ControlSubType) String() string {
	switch c {
	case ControlSubTypeJoin:
		return "join"
	case ControlSubTypeLeave:
		return "leave"
	case ControlSubTypeKick:
		return "kick"
	case ControlSubTypePing:
		return "ping"
	case ControlSubTypePong:
		return "pong"
	case ControlSubTypeError:
		return "error"
	case ControlSubTypeAssign:
		return "assign"
	case ControlSubTypeBattleEnded:
		return "battle_ended"
	case ControlSubTypeObserve:
		return "observe"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// PayloadHeader はペイロードヘッダー (2バイト)
//
//	datatype  u8 (1)
//	subtype   u8 (1)
type PayloadHeader struct {
	DataType DataType
	SubType  uint8
}

// ErrProtocol は不正な受信メッセージを表すエラーです。該当メッセージは破棄されます。
var ErrProtocol = errors.New("protocol error")

var (
	ErrInvalidHeaderSize  = fmt.Errorf("%w: invalid header size", ErrProtocol)
	ErrInvalidPayloadSize = fmt.Errorf("%w: invalid payload size", ErrProtocol)
	ErrPayloadTooLarge    = fmt.Errorf("%w: payload too large", ErrProtocol)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported protocol version", ErrProtocol)
)

// ParseHeader はバイト列からHeaderをパースする
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidHeaderSize
	}

	var sessionID [16]byte
	copy(sessionID[:], data[1:17])

	return &Header{
		Version:   data[0],
		SessionID: sessionID,
		Seq:       byteOrder.Uint16(data[17:19]),
		Length:    byteOrder.Uint16(data[19:21]),
		Timestamp: byteOrder.Uint32(data[21:25]),
	}, nil
}

// Encode はHeaderをバイト列にエンコードする
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	data[0] = h.Version
	copy(data[1:17], h.SessionID[:])
	byteOrder.PutUint16(data[17:19], h.Seq)
	byteOrder.PutUint16(data[19:21], h.Length)
	byteOrder.PutUint32(data[21:25], h.Timestamp)
	return data
}

// ParsePayloadHeader はバイト列からPayloadHeaderをパースする
func ParsePayloadHeader(data []byte) (*PayloadHeader, error) {
	if len(data) < PayloadHeaderSize {
		return nil, ErrInvalidPayloadSize
	}

	return &PayloadHeader{
		DataType: DataType(data[0]),
		SubType:  data[1],
	}, nil
}

// Encode はPayloadHeaderをバイト列にエンコードする
func (p *PayloadHeader) Encode() []byte {
	data := make([]byte, PayloadHeaderSize)
	data[0] = byte(p.DataType)
	data[1] = byte(p.SubType)
	return data
}

// Frame はパース済みのメッセージ全体です。
type Frame struct {
	Header        Header
	PayloadHeader PayloadHeader
	Payload       []byte
}

// ParseFrame はヘッダー・ペイロードヘッダー・ペイロード本体をまとめてパースする
// Header.Length と実際の長さが一致しない場合はエラーを返す
func ParseFrame(data []byte) (*Frame, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if header.Version != ProtocolVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
	if int(header.Length) != len(data)-HeaderSize {
		return nil, fmt.Errorf("%w: length %d, got %d", ErrInvalidPayloadSize, header.Length, len(data)-HeaderSize)
	}
	payloadHeader, err := ParsePayloadHeader(data[HeaderSize:])
	if err != nil {
		return nil, err
	}
	return &Frame{
		Header:        *header,
		PayloadHeader: *payloadHeader,
		Payload:       data[HeaderSize+PayloadHeaderSize:],
	}, nil
}

// EncodeMessage はヘッダーとペイロードヘッダーを付けたメッセージをエンコードする
func EncodeMessage(sessionID SessionID, dataType DataType, subType uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	header := Header{
		Version:   ProtocolVersion,
		SessionID: sessionID.Bytes(),
		Seq:       0,
		Length:    uint16(PayloadHeaderSize + len(payload)),
		Timestamp: uint32(time.Now().UnixMilli() & 0xFFFFFFFF),
	}
	payloadHeader := PayloadHeader{
		DataType: dataType,
		SubType:  subType,
	}

	data := make([]byte, HeaderSize+PayloadHeaderSize+len(payload))
	copy(data[:HeaderSize], header.Encode())
	copy(data[HeaderSize:], payloadHeader.Encode())
	copy(data[HeaderSize+PayloadHeaderSize:], payload)
	return data, nil
}

func encodeControl(sessionID SessionID, subType ControlSubType, payload []byte) []byte {
	data, err := EncodeMessage(sessionID, DataTypeControl, uint8(subType), payload)
	if err != nil {
		// 制御メッセージは呼び出し側で長さを制限している
		panic(err)
	}
	return data
}

// EncodeAssignMessage はセッションID通知メッセージをエンコードする
// クライアントに自分のセッションIDを通知するために使用
func EncodeAssignMessage(sessionID SessionID) []byte {
	return encodeControl(sessionID, ControlSubTypeAssign, nil)
}

// EncodeLeaveMessage はルーム離脱メッセージをエンコードする
// 異常切断時にclose()からRoom離脱を通知するために使用
func EncodeLeaveMessage(sessionID SessionID) []byte {
	return encodeControl(sessionID, ControlSubTypeLeave, nil)
}

// EncodePingMessage はPingメッセージをエンコードする
// クライアントに死活確認のpingを送信するために使用
func EncodePingMessage(sessionID SessionID) []byte {
	return encodeControl(sessionID, ControlSubTypePing, nil)
}

// EncodePongMessage はPingへの応答メッセージをエンコードする
func EncodePongMessage(sessionID SessionID) []byte {
	return encodeControl(sessionID, ControlSubTypePong, nil)
}

// EncodeObserveMessage は観戦者としての参加をRoomに通知するメッセージをエンコードする
func EncodeObserveMessage(sessionID SessionID) []byte {
	return encodeControl(sessionID, ControlSubTypeObserve, nil)
}

// EncodeJoinMessage は参加トークンを載せたJoinメッセージをエンコードする
func EncodeJoinMessage(sessionID SessionID, token string) ([]byte, error) {
	return EncodeMessage(sessionID, DataTypeControl, uint8(ControlSubTypeJoin), []byte(token))
}

// EncodeErrorMessage はエラー理由を載せたメッセージをエンコードする
// 理由が長すぎる場合は切り詰める
func EncodeErrorMessage(sessionID SessionID, reason string) []byte {
	if len(reason) > 1024 {
		reason = reason[:1024]
	}
	return encodeControl(sessionID, ControlSubTypeError, []byte(reason))
}

// IntentPayload はボットの1ティック分の指示 (46バイト + チームメッセージ)
//
//	turnRate       float64 (8)
//	gunTurnRate    float64 (8)
//	radarTurnRate  float64 (8)
//	targetSpeed    float64 (8)
//	firepower      float64 (8)
//	turn           u32     (4) - 対象ティック (0は指定なし)
//	flags          u8      (1) - bit0: 車体旋回で砲塔を補正, bit1: 砲塔旋回でレーダーを補正
//	count          u8      (1) - チームメッセージ数
//	messages       可変長   - receiverID u16, length u16, payload
type IntentPayload struct {
	TurnRate              float64
	GunTurnRate           float64
	RadarTurnRate         float64
	TargetSpeed           float64
	Firepower             float64
	Turn                  uint32
	AdjustGunForBodyTurn  bool
	AdjustRadarForGunTurn bool
	TeamMessages          []TeamMessagePayload
}

// TeamMessagePayload はチームメイト宛てのメッセージ
// ReceiverID が0の場合はチーム全員宛て
type TeamMessagePayload struct {
	ReceiverID uint16
	Payload    []byte
}

const (
	intentFlagAdjustGun   = 1 << 0
	intentFlagAdjustRadar = 1 << 1
)

var (
	ErrInvalidIntentSize  = fmt.Errorf("%w: invalid intent payload size", ErrProtocol)
	ErrInvalidTeamMessage = fmt.Errorf("%w: invalid team message", ErrProtocol)
)

// ParseIntentPayload はバイト列からIntentPayloadをパースする
func ParseIntentPayload(data []byte) (*IntentPayload, error) {
	if len(data) < IntentFixedSize {
		return nil, ErrInvalidIntentSize
	}
	flags := data[44]
	p := &IntentPayload{
		TurnRate:              readFloat64(data[0:8]),
		GunTurnRate:           readFloat64(data[8:16]),
		RadarTurnRate:         readFloat64(data[16:24]),
		TargetSpeed:           readFloat64(data[24:32]),
		Firepower:             readFloat64(data[32:40]),
		Turn:                  byteOrder.Uint32(data[40:44]),
		AdjustGunForBodyTurn:  flags&intentFlagAdjustGun != 0,
		AdjustRadarForGunTurn: flags&intentFlagAdjustRadar != 0,
	}

	count := int(data[45])
	rest := data[IntentFixedSize:]
	for i := 0; i < count; i++ {
		if len(rest) < TeamMessageHeaderSize {
			return nil, fmt.Errorf("%w: message %d header truncated", ErrInvalidTeamMessage, i)
		}
		receiver := byteOrder.Uint16(rest[0:2])
		n := int(byteOrder.Uint16(rest[2:4]))
		rest = rest[TeamMessageHeaderSize:]
		if len(rest) < n {
			return nil, fmt.Errorf("%w: message %d body truncated", ErrInvalidTeamMessage, i)
		}
		payload := make([]byte, n)
		copy(payload, rest[:n])
		p.TeamMessages = append(p.TeamMessages, TeamMessagePayload{ReceiverID: receiver, Payload: payload})
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidIntentSize, len(rest))
	}
	return p, nil
}

// Encode はIntentPayloadをバイト列にエンコードする
func (p *IntentPayload) Encode() ([]byte, error) {
	if len(p.TeamMessages) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: too many messages", ErrInvalidTeamMessage)
	}
	size := IntentFixedSize
	for _, m := range p.TeamMessages {
		if len(m.Payload) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: message too large", ErrInvalidTeamMessage)
		}
		size += TeamMessageHeaderSize + len(m.Payload)
	}

	data := make([]byte, size)
	writeFloat64(data[0:8], p.TurnRate)
	writeFloat64(data[8:16], p.GunTurnRate)
	writeFloat64(data[16:24], p.RadarTurnRate)
	writeFloat64(data[24:32], p.TargetSpeed)
	writeFloat64(data[32:40], p.Firepower)
	byteOrder.PutUint32(data[40:44], p.Turn)
	var flags byte
	if p.AdjustGunForBodyTurn {
		flags |= intentFlagAdjustGun
	}
	if p.AdjustRadarForGunTurn {
		flags |= intentFlagAdjustRadar
	}
	data[44] = flags
	data[45] = byte(len(p.TeamMessages))

	off := IntentFixedSize
	for _, m := range p.TeamMessages {
		byteOrder.PutUint16(data[off:off+2], m.ReceiverID)
		byteOrder.PutUint16(data[off+2:off+4], uint16(len(m.Payload)))
		off += TeamMessageHeaderSize
		off += copy(data[off:], m.Payload)
	}
	return data, nil
}

func readFloat64(b []byte) float64 {
	return math.Float64frombits(byteOrder.Uint64(b))
}

func writeFloat64(b []byte, f float64) {
	byteOrder.PutUint64(b, math.Float64bits(f))
}

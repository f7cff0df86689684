package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"botarena/server/application"
	"botarena/server/config"
	"botarena/server/domain"
	"botarena/server/handler"
	"botarena/utils"
)

var errBattleEnded = errors.New("battle ended")

const tokenTTL = time.Hour

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	botCountStr := utils.GetEnvDefault("BOT_COUNT", strconv.Itoa(len(cfg.Roster)))
	botCount, err := strconv.Atoi(botCountStr)
	if err != nil || botCount < 0 {
		slog.Error("invalid BOT_COUNT", "value", botCountStr)
		os.Exit(1)
	}
	botCount = min(botCount, len(cfg.Roster))

	serverURL := fmt.Sprintf("ws://%s/ws", cfg.ListenAddr())
	slog.Info("starting bots", "count", botCount, "server", serverURL)

	eg, ctx := errgroup.WithContext(ctx)
	for _, spec := range cfg.Roster[:botCount] {
		eg.Go(func() error {
			runBot(ctx, serverURL, spec.Name, cfg.TokenSecret)
			return nil
		})
	}
	_ = eg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL, name, secret string) {
	logger := slog.With("bot", name)

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, name, secret, logger)
		if errors.Is(err, errBattleEnded) {
			return
		}
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func botSession(ctx context.Context, serverURL, name, secret string, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()
	logger.Info("connected")

	var sessionID domain.SessionID
	controller := application.NewRuleBotController(nil)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "shutdown")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		frame, err := domain.ParseFrame(data)
		if err != nil {
			logger.Warn("dropped malformed message", "err", err)
			continue
		}

		var reply []byte
		switch frame.PayloadHeader.DataType {
		case domain.DataTypeControl:
			switch domain.ControlSubType(frame.PayloadHeader.SubType) {
			case domain.ControlSubTypeAssign:
				sessionID = domain.SessionIDFromBytes(frame.Header.SessionID)
				logger.Info("session assigned", "sessionID", sessionID)
				token, err := joinToken(name, secret)
				if err != nil {
					return err
				}
				if reply, err = domain.EncodeJoinMessage(sessionID, token); err != nil {
					return err
				}
			case domain.ControlSubTypePing:
				reply = domain.EncodePongMessage(sessionID)
			case domain.ControlSubTypeError:
				logger.Warn("server rejected message", "reason", string(frame.Payload))
			case domain.ControlSubTypeBattleEnded:
				logResult(logger, frame.Payload)
				conn.Close(websocket.StatusNormalClosure, "battle ended")
				return errBattleEnded
			}

		case domain.DataTypeTick:
			msg, err := application.DecodeBotTick(frame.Payload)
			if err != nil {
				logger.Warn("failed to decode tick", "err", err)
				continue
			}
			if msg.Over || !msg.Self.Alive {
				continue
			}
			intent := controller.Decide(msg)
			payload, err := intent.Encode()
			if err != nil {
				return err
			}
			if reply, err = domain.EncodeMessage(sessionID, domain.DataTypeIntent, 0, payload); err != nil {
				return err
			}
		}

		if reply == nil {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageBinary, reply); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
}

// joinToken は secret が設定されていれば署名付きトークンを、なければ名前をそのまま返します。
func joinToken(name, secret string) (string, error) {
	if secret == "" {
		return name, nil
	}
	return handler.MintToken(secret, name, tokenTTL)
}

func logResult(logger *slog.Logger, payload []byte) {
	var result application.BattleResult
	if err := json.Unmarshal(payload, &result); err != nil {
		logger.Warn("failed to decode battle result", "err", err)
		return
	}
	for _, sc := range result.Scores {
		logger.Info("battle result", "reason", result.Reason, "rank", sc.Rank, "participantId", sc.ParticipantID, "totalScore", sc.TotalScore)
	}
}

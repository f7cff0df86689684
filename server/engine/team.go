package engine

// queueTeamMessages は上限内のメッセージを次のティックの配信用に保持します。
// 上限を超えたメッセージや宛先がチームメイトでないメッセージは破棄します。
func (a *Arena) queueTeamMessages(b *Bot, msgs []TeamMessage) {
	if b.TeamID == 0 || len(msgs) == 0 {
		return
	}
	for _, m := range msgs {
		if len(b.pendingTeamMessages) >= a.rules.MaxNumberOfTeamMessagesPerTurn {
			return
		}
		if len(m.Payload) == 0 || len(m.Payload) > a.rules.MaxTeamMessageSize {
			continue
		}
		if m.ReceiverID != 0 {
			receiver, ok := a.botByID[m.ReceiverID]
			if !ok || receiver.ID == b.ID || !b.IsTeammate(receiver) {
				continue
			}
		}
		payload := make([]byte, len(m.Payload))
		copy(payload, m.Payload)
		b.pendingTeamMessages = append(b.pendingTeamMessages, TeamMessage{ReceiverID: m.ReceiverID, Payload: payload})
	}
}

// deliverTeamMessages は前のティックで送信されたメッセージを生存しているチームメイトに配信します。
func (a *Arena) deliverTeamMessages(out *tickOutcome) {
	for _, sender := range a.bots {
		if len(sender.pendingTeamMessages) == 0 {
			continue
		}
		for _, m := range sender.pendingTeamMessages {
			for _, receiver := range a.bots {
				if !receiver.Alive || receiver.ID == sender.ID || !sender.IsTeammate(receiver) {
					continue
				}
				if m.ReceiverID != 0 && m.ReceiverID != receiver.ID {
					continue
				}
				out.emit(TeamMessageEvent{
					TurnNumber: out.tick,
					SenderID:   sender.ID,
					ReceiverID: receiver.ID,
					Payload:    m.Payload,
				})
			}
		}
		sender.pendingTeamMessages = nil
	}
}

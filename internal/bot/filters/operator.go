// Package filters отсеивает сообщения от посторонних пользователей.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// OperatorFilter пропускает только операторов из списка ADMIN_IDS
// и только в личных диалогах.
type OperatorFilter struct {
	operators map[int64]struct{}
}

// NewOperatorFilter создаёт фильтр по списку операторов.
func NewOperatorFilter(ids []int64) *OperatorFilter {
	operators := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		operators[id] = struct{}{}
	}
	return &OperatorFilter{operators: operators}
}

// CheckAccess решает, обрабатывать ли сообщение.
func (f *OperatorFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil || message.From == nil {
		log.WithField("component", "OperatorFilter").Warn("nil message/chat/from")
		return false
	}
	if !message.Chat.IsPrivate() {
		return false
	}
	if _, ok := f.operators[message.From.ID]; !ok {
		log.WithFields(log.Fields{
			"component": "OperatorFilter",
			"user_id":   message.From.ID,
		}).Info("deny: пользователь не в списке операторов")
		return false
	}
	return true
}

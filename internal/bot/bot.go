// Package bot содержит операторский телеграм-бот: запуск, polling
// и команды /balance и /orders. Управление настройками накрутки в
// бот не вынесено, команды только читают состояние.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/bot/filters"
	"autosmm.ru/smm-bot/internal/bot/middleware"
	"autosmm.ru/smm-bot/internal/common"
	"autosmm.ru/smm-bot/internal/config"
	"autosmm.ru/smm-bot/internal/features/checker"
	"autosmm.ru/smm-bot/internal/features/intake"
	"autosmm.ru/smm-bot/internal/features/notify"
)

const ordersListLimit = 10

// Bot — операторский бот.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	filter   *filters.OperatorFilter
	notifier *notify.Service
	orders   *checker.OrderRepository
	payRepo  *intake.PayOrderRepository

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бот со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	filter *filters.OperatorFilter,
	notifier *notify.Service,
	orders *checker.OrderRepository,
	payRepo *intake.PayOrderRepository,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	return &Bot{
		api:      api,
		cfg:      cfg,
		filter:   filter,
		notifier: notifier,
		orders:   orders,
		payRepo:  payRepo,
		inflight: make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic("bot")

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.filter.CheckAccess(message) {
		return
	}

	cmd := strings.Fields(message.Text)[0]
	switch cmd {
	case "/start", "/help":
		b.sendMessage(message.Chat.ID,
			"Я бот авто-накрутки.\n\n"+
				"📋 Команды:\n"+
				"/balance — балансы SMM-сервисов и площадки\n"+
				"/orders — активные заказы")
	case "/balance":
		b.notifier.Balances(ctx)
	case "/orders":
		b.sendMessage(message.Chat.ID, b.ordersSummary())
	default:
		log.WithField("cmd", cmd).Debug("Неизвестная команда")
	}
}

// ordersSummary — сводка по активным заказам и заказам в ожидании ссылки.
func (b *Bot) ordersSummary() string {
	var sb strings.Builder

	active, err := b.orders.All()
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать активные заказы")
		return "🔴 Не удалось прочитать активные заказы."
	}
	fmt.Fprintf(&sb, "📈 В работе: %d %s\n", len(active), common.PluralizeOrders(len(active)))
	shown := 0
	for smmID, order := range active {
		if shown == ordersListLimit {
			sb.WriteString("…\n")
			break
		}
		fmt.Fprintf(&sb, "⠀∟`%s` → #%s, %s, остаток %d\n",
			smmID, order.MarketOrderID, order.Status, order.Remains)
		shown++
	}

	pending, err := b.payRepo.List()
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать оплаченные заказы")
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n⏳ Ожидают ссылку/подтверждение: %d %s\n", len(pending), common.PluralizeOrders(len(pending)))
	for i, order := range pending {
		if i == ordersListLimit {
			sb.WriteString("…\n")
			break
		}
		fmt.Fprintf(&sb, "⠀∟#%s — %s, %d шт\n", order.OrderID, order.Buyer, order.Amount)
	}
	return sb.String()
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if err := NewSender(b.api).Send(chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// Sender доставляет уведомления операторам через Telegram API.
// Выделен отдельно от Bot, чтобы сервис уведомлений собирался раньше бота.
type Sender struct {
	api *tgbotapi.BotAPI
}

// NewSender создаёт отправитель уведомлений.
func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

// Send отправляет Markdown-сообщение одному оператору.
func (s *Sender) Send(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}

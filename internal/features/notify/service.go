// Package notify — service.go: уведомления операторам в Telegram.
// Сервис реализует интерфейс уведомлений приёма заказов и рассылает
// тексты всем операторам из списка; сбой доставки одному получателю
// не прерывает рассылку остальным.
package notify

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/common"
	"autosmm.ru/smm-bot/internal/features/intake"
	"autosmm.ru/smm-bot/internal/marketplace"
	"autosmm.ru/smm-bot/internal/settings"
	"autosmm.ru/smm-bot/internal/smmapi"
)

const serviceName = "AutoSMM"

// Sender — доставка текста оператору. Реализация — телеграм-бот.
type Sender interface {
	Send(userID int64, text string) error
}

// SMMClient — операции SMM-сервиса для уведомлений.
type SMMClient interface {
	OrderStatus(ctx context.Context, acc smmapi.Account, orderID int64) (smmapi.Status, error)
	Balance(ctx context.Context, acc smmapi.Account) (float64, string, error)
}

// Service — рассылка уведомлений операторам.
type Service struct {
	host       marketplace.Host
	smm        SMMClient
	settings   *settings.Service
	sender     Sender
	recipients []int64
	rates      *RateClient
}

// NewService создаёт сервис уведомлений.
func NewService(host marketplace.Host, smm SMMClient, settingsSvc *settings.Service, sender Sender, recipients []int64) *Service {
	return &Service{
		host:       host,
		smm:        smm,
		settings:   settingsSvc,
		sender:     sender,
		recipients: recipients,
		rates:      NewRateClient(),
	}
}

// OrderCreated — уведомление о созданном заказе с расчётом прибыли.
func (s *Service) OrderCreated(ctx context.Context, order intake.PendingLinkOrder, smmOrderID int64) {
	acc, err := s.settings.Account(order.Account)
	if err != nil {
		log.WithError(err).Warn("Уведомление о заказе без данных SMM-аккаунта")
		return
	}

	status, err := s.smm.OrderStatus(ctx, acc, smmOrderID)
	if err != nil {
		log.WithError(err).WithField("smm_order", smmOrderID).Warn("Не удалось получить данные заказа для уведомления")
		return
	}
	spent := status.Charge
	spentCurrency := status.Currency
	if spentCurrency == "" {
		spentCurrency = "USD"
	}

	balance, balanceCurrency, err := s.smm.Balance(ctx, acc)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить баланс SMM для уведомления")
		balanceCurrency = spentCurrency
	}

	fpBalance, err := s.host.Balance(ctx)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить баланс площадки")
	}

	// расход приводится к валюте заказа
	switch order.Currency {
	case "₽":
		if spentCurrency == "USD" {
			spent *= s.rates.Rate(ctx, "USD", "RUB")
		}
	case "$":
		if spentCurrency == "RUB" {
			spent *= s.rates.Rate(ctx, "RUB", "USD")
		}
	}

	profit := order.Price - spent
	profit6 := profit * 0.94
	profit3 := profit * 0.97

	text := fmt.Sprintf(
		"✅ Создан заказ `%s`: `%s`\n\n"+
			"🙍‍♂️ Покупатель: `%s`\n\n"+
			"💵 Сумма заказа: `%.2f %s`\n"+
			"💵 Потрачено: `%.2f %s`\n"+
			"💵 Прибыль: `%.2f`\n"+
			"💵 Прибыль с комиссией: `%.2f (6%%) / %.2f (3%%)`\n"+
			"💰 Остаток на балансе: `%.2f %s`\n"+
			"💰 Баланс на FunPay: `%.2f₽, %.2f$, %.2f€`\n\n"+
			"📇 ID заказа на FunPay: `%s`\n"+
			"🆔 ID заказа на сайте: `%d`\n"+
			"🔍 Сервис ID: `%d`\n"+
			"🔢 Кол-во: `%d`\n"+
			"🔗 Ссылка: %s",
		serviceName, order.Title,
		order.Buyer,
		order.Price, order.Currency,
		spent, spentCurrency,
		profit,
		profit6, profit3,
		balance, balanceCurrency,
		fpBalance.TotalRUB, fpBalance.AvailableUSD, fpBalance.TotalEUR,
		order.OrderID,
		smmOrderID,
		order.ServiceID,
		order.Amount,
		common.StripScheme(order.Link),
	)
	s.broadcast(text)
}

// OrderFailed — уведомление о неудачном создании заказа.
func (s *Service) OrderFailed(ctx context.Context, order intake.PendingLinkOrder, errText string) {
	s.broadcast(fmt.Sprintf("❌ Ошибка при создании заказа `%s #%s`: `%s`", serviceName, order.OrderID, errText))
}

// Balances — сводка балансов SMM-аккаунтов и площадки.
func (s *Service) Balances(ctx context.Context) {
	var b strings.Builder

	st := s.settings.Get()
	for _, account := range []int{1, 2} {
		acc, err := s.settings.Account(account)
		if err != nil {
			continue
		}
		balance, currency, err := s.smm.Balance(ctx, acc)
		if err != nil {
			log.WithError(err).WithField("account", account).Warn("Не удалось получить баланс SMM")
			balance, currency = 0, "N/A"
		}
		fmt.Fprintf(&b, "💰 Баланс %s: `%.2f %s`\n", balanceLabel(accountURL(st, account)), balance, currency)
	}

	fpBalance, err := s.host.Balance(ctx)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить баланс площадки")
	}
	fmt.Fprintf(&b, "💰 Баланс на FunPay: `%.2f₽, %.2f$, %.2f€`",
		fpBalance.TotalRUB, fpBalance.AvailableUSD, fpBalance.TotalEUR)

	s.broadcast(b.String())
}

// Startup — баннер операторам при запуске, если включён в настройках.
func (s *Service) Startup(version string) {
	if !s.settings.Get().StartMessage {
		return
	}
	s.broadcast(fmt.Sprintf("✅ Авто-накрутка инициализирована!\n\nℹ️ Версия: `%s`\n📋 Команды: /balance, /orders", version))
}

// broadcast рассылает текст всем операторам.
func (s *Service) broadcast(text string) {
	if len(s.recipients) == 0 {
		log.Warn("Список операторов пуст, уведомление пропущено")
		return
	}
	for _, userID := range s.recipients {
		if err := s.sender.Send(userID, text); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка отправки уведомления оператору")
		}
	}
}

func accountURL(st settings.Settings, account int) string {
	if account == 2 {
		return st.APIURL2
	}
	return st.APIURL
}

// balanceLabel превращает URL API в короткую подпись: без схемы
// и без хвоста /api/v2.
func balanceLabel(rawURL string) string {
	if rawURL == "" {
		return "сайта"
	}
	label := common.StripScheme(rawURL)
	label = strings.TrimSuffix(label, "/")
	label = strings.TrimSuffix(label, "/api/v2")
	return label
}

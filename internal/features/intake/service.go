// Package intake — service.go содержит машину состояний заказа:
// NEW → AWAITING_LINK → AWAITING_CONFIRMATION → {CREATED | REFUNDED}.
// Переходы выполняются обработчиками событий площадки (handlers.go),
// здесь — сами действия: приём ссылки, подтверждение, отказ.
package intake

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/common"
	"autosmm.ru/smm-bot/internal/features/checker"
	"autosmm.ru/smm-bot/internal/marketplace"
	"autosmm.ru/smm-bot/internal/settings"
	"autosmm.ru/smm-bot/internal/smmapi"
)

// SMMClient — операции SMM-сервиса, которые нужны приёму заказов.
type SMMClient interface {
	CreateOrder(ctx context.Context, acc smmapi.Account, serviceID int64, link string, quantity int64) (int64, error)
	OrderStatus(ctx context.Context, acc smmapi.Account, orderID int64) (smmapi.Status, error)
	Refill(ctx context.Context, acc smmapi.Account, orderID int64) error
}

// Notifier — уведомления операторам. Вызывается только при включённых
// флагах; ошибки отправки обрабатывает сам получатель интерфейса.
type Notifier interface {
	OrderCreated(ctx context.Context, order PendingLinkOrder, smmOrderID int64)
	OrderFailed(ctx context.Context, order PendingLinkOrder, errText string)
	Balances(ctx context.Context)
}

// Service проводит заказ от события покупки до создания накрутки.
type Service struct {
	host     marketplace.Host
	smm      SMMClient
	settings *settings.Service
	payRepo  *PayOrderRepository
	orders   *checker.OrderRepository
	notifier Notifier
	pending  *confirmations
}

// NewService создаёт сервис приёма заказов.
func NewService(
	host marketplace.Host,
	smm SMMClient,
	settingsSvc *settings.Service,
	payRepo *PayOrderRepository,
	orders *checker.OrderRepository,
	notifier Notifier,
) *Service {
	return &Service{
		host:     host,
		smm:      smm,
		settings: settingsSvc,
		payRepo:  payRepo,
		orders:   orders,
		notifier: notifier,
		pending:  newConfirmations(),
	}
}

// pendingOrder возвращает заказ, ожидающий «+/-» в диалоге.
// Сначала реестр в памяти; после рестарта — восстановление из
// payorders.json: заказ с непустой ссылкой и этим диалогом.
func (s *Service) pendingOrder(chatID int64) (PendingLinkOrder, bool) {
	if orderID, ok := s.pending.get(chatID); ok {
		order, found, err := s.payRepo.Find(orderID)
		if err != nil {
			log.WithError(err).Error("Не удалось прочитать оплаченные заказы")
			return PendingLinkOrder{}, false
		}
		if found {
			return order, true
		}
		// заказ исчез (возврат извне) — снимаем подтверждение
		s.pending.pop(chatID)
		return PendingLinkOrder{}, false
	}

	order, found, err := s.payRepo.FindByChat(chatID, "")
	if err != nil || !found || order.Link == "" {
		return PendingLinkOrder{}, false
	}
	s.pending.set(chatID, order.OrderID)
	return order, true
}

// handleLink принимает ссылку покупателя и запрашивает подтверждение.
// Повторная ссылка в окне подтверждения обновляет заказ на месте
// и перезапускает подтверждение.
func (s *Service) handleLink(ctx context.Context, order PendingLinkOrder, chatID int64, link string) {
	st := s.settings.Get()

	if err := validateTelegramLink(link, st.AllowTGPrivate); err != nil {
		s.send(ctx, chatID, "❌ "+err.Error())
		return
	}

	order.Link = link
	order.ChatID = chatID
	if err := s.payRepo.Upsert(order); err != nil {
		log.WithError(err).WithField("order_id", order.OrderID).Error("Не удалось сохранить ссылку заказа")
		return
	}

	text := fmt.Sprintf(`📋 Пожалуйста, проверьте детали вашего заказа:
🛒 Лот: %s
🔢 Количество: %d шт
🔗 Ссылка: %s

✅ Если всё верно, отправьте: +
❌ Для возврата средств, отправьте: -
🔄 Или отправьте новую ссылку для обновления.`, order.Title, order.Amount, common.StripScheme(link))

	s.send(ctx, chatID, text)
	s.pending.set(chatID, order.OrderID)

	log.WithFields(log.Fields{
		"order_id": order.OrderID,
		"chat_id":  chatID,
	}).Info("Ссылка принята, ожидаем подтверждение")
}

// confirm обрабатывает «+»: создаёт заказ на SMM-сервисе.
func (s *Service) confirm(ctx context.Context, order PendingLinkOrder) {
	s.pending.pop(order.ChatID)
	st := s.settings.Get()

	acc, err := s.settings.Account(order.Account)
	if err != nil {
		s.creationFailed(ctx, order, common.ErrAPINotConfigured.Error(), st)
		return
	}

	smmOrderID, err := s.smm.CreateOrder(ctx, acc, order.ServiceID, order.Link, order.Amount)
	if err != nil {
		log.WithError(err).WithField("order_id", order.OrderID).Error("Создание заказа в SMM не удалось")
		s.creationFailed(ctx, order, err.Error(), st)
		return
	}

	remote := checker.RemoteOrder{
		ServiceID:     order.ServiceID,
		ChatID:        order.ChatID,
		MarketOrderID: order.OrderID,
		Link:          order.Link,
		Amount:        order.Amount,
		CreatedAt:     order.CreatedAt,
		Status:        smmapi.StatusPending,
		Account:       order.Account,
	}
	if err := s.orders.Add(strconv.FormatInt(smmOrderID, 10), remote); err != nil {
		// заказ на сервисе уже создан, поэтому не прерываемся
		log.WithError(err).WithField("smm_order", smmOrderID).Error("Не удалось сохранить активный заказ")
	}

	if st.AlertNewOrder {
		s.notifier.OrderCreated(ctx, order, smmOrderID)
	}

	statusCmd := "статус"
	if order.Account == 2 {
		statusCmd = "инфо"
	}
	s.send(ctx, order.ChatID, fmt.Sprintf(`📊 Ваш заказ СОЗДАН и отправлен SMM сервису!
🆔 ID заказа: %d

📋 Доступные команды:
⠀∟📗 Узнать статус заказа: #%s %d
⠀∟📙 Рефилл (если доступно): #рефилл %d

⌛ Время выполнения: от нескольких минут до 48 часов. В редких случаях возможны задержки.`,
		smmOrderID, statusCmd, smmOrderID, smmOrderID))

	if err := s.payRepo.Remove(order.OrderID); err != nil {
		log.WithError(err).WithField("order_id", order.OrderID).Error("Не удалось убрать заказ из ожидающих")
	}

	log.WithFields(log.Fields{
		"order_id":  order.OrderID,
		"smm_order": smmOrderID,
	}).Info("Заказ успешно создан в SMM")
}

// creationFailed — отказ SMM-сервиса или невалидные доступы:
// сообщение покупателю, уведомления, автовозврат по настройке.
func (s *Service) creationFailed(ctx context.Context, order PendingLinkOrder, errText string, st settings.Settings) {
	s.send(ctx, order.ChatID, "❌ Ошибка при создании заказа: "+errText)

	if st.AlertErrorOrder {
		s.notifier.OrderFailed(ctx, order, errText)
	}
	if st.AlertSMMBalance {
		s.notifier.Balances(ctx)
	}
	if st.RefundOnError {
		if err := s.host.Refund(ctx, order.OrderID); err != nil {
			log.WithError(err).WithField("order_id", order.OrderID).Error("Автовозврат не удался")
			return
		}
		if err := s.payRepo.Remove(order.OrderID); err != nil {
			log.WithError(err).WithField("order_id", order.OrderID).Error("Не удалось убрать заказ после автовозврата")
		}
		log.WithField("order_id", order.OrderID).Info("Выполнен автовозврат")
	}
}

// decline обрабатывает «-»: возврат средств и удаление заказа.
func (s *Service) decline(ctx context.Context, order PendingLinkOrder) {
	s.pending.pop(order.ChatID)
	s.send(ctx, order.ChatID, "❌ Заказ отменен.")

	// возврат — best effort: неудача логируется и не мешает удалению
	if err := s.host.Refund(ctx, order.OrderID); err != nil {
		log.WithError(err).WithField("order_id", order.OrderID).Error("Возврат средств не удался")
	}
	if err := s.payRepo.Remove(order.OrderID); err != nil {
		log.WithError(err).WithField("order_id", order.OrderID).Error("Не удалось удалить заказ из списка")
	}

	log.WithField("order_id", order.OrderID).Info("Заказ отменён покупателем")
}

// send — отправка сообщения покупателю, ошибка только в лог.
func (s *Service) send(ctx context.Context, chatID int64, text string) {
	if err := s.host.SendMessage(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения покупателю")
	}
}

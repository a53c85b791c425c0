// Package checker — service.go: фоновый цикл сверки активных заказов
// со статусами SMM-сервиса. Каждый цикл проходит по orders.json,
// опрашивает сервис и разводит заказы по терминальным исходам.
package checker

import (
	"context"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/marketplace"
	"autosmm.ru/smm-bot/internal/settings"
	"autosmm.ru/smm-bot/internal/smmapi"
)

// SMMClient — операции SMM-сервиса, которые нужны чекеру.
type SMMClient interface {
	OrderStatus(ctx context.Context, acc smmapi.Account, orderID int64) (smmapi.Status, error)
	CreateOrder(ctx context.Context, acc smmapi.Account, serviceID int64, link string, quantity int64) (int64, error)
}

// Service — сверка статусов заказов накрутки.
type Service struct {
	host     marketplace.Host
	smm      SMMClient
	settings *settings.Service
	orders   *OrderRepository
}

// NewService создаёт чекер статусов.
func NewService(host marketplace.Host, smm SMMClient, settingsSvc *settings.Service, orders *OrderRepository) *Service {
	return &Service{
		host:     host,
		smm:      smm,
		settings: settingsSvc,
		orders:   orders,
	}
}

// Run запускает цикл сверки до отмены контекста.
// Интервал перечитывается из настроек перед каждой паузой,
// чтобы изменение применялось без рестарта.
func (s *Service) Run(ctx context.Context) {
	log.Info("Чекер статусов запущен")
	for {
		s.safeCycle(ctx)

		interval := time.Duration(s.settings.Get().CheckInterval) * time.Second
		if interval <= 0 {
			interval = time.Minute
		}
		select {
		case <-ctx.Done():
			log.Info("Чекер статусов остановлен")
			return
		case <-time.After(interval):
		}
	}
}

// safeCycle изолирует панику одного цикла, чтобы не ронять фон.
func (s *Service) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Паника в цикле чекера")
		}
	}()
	s.runCycle(ctx)
}

// runCycle — один проход по активным заказам.
func (s *Service) runCycle(ctx context.Context) {
	orders, err := s.orders.All()
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать активные заказы")
		return
	}
	if len(orders) == 0 {
		return
	}

	// доступы резолвятся один раз на цикл
	accounts := map[int]smmapi.Account{}
	for _, n := range []int{1, 2} {
		if acc, err := s.settings.Account(n); err == nil {
			accounts[n] = acc
		}
	}
	if len(accounts) == 0 {
		log.Warn("SMM API не настроен, сверка пропущена")
		return
	}

	// цикл длится долго (HTTP-запрос на запись), поэтому итог
	// коммитится как дельта: что удалить и что обновить; заказы,
	// добавленные в коллекцию во время цикла, не затрагиваются
	removed := make([]string, 0)
	updated := make(map[string]RemoteOrder)
	for smmID, order := range orders {
		keep, next := s.checkOrder(ctx, accounts, smmID, order)
		if keep {
			updated[smmID] = next
		} else {
			removed = append(removed, smmID)
		}
	}

	staged, err := s.orders.Staged()
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать буфер пересозданных заказов")
		staged = nil
	}

	if err := s.orders.Commit(removed, updated, staged); err != nil {
		log.WithError(err).Error("Не удалось сохранить активные заказы")
		return
	}
	if len(staged) > 0 {
		if err := s.orders.ClearStaged(); err != nil {
			log.WithError(err).Error("Не удалось очистить буфер пересозданных заказов")
		}
	}
}

// checkOrder сверяет один заказ. Возвращает keep=false, когда заказ
// достиг терминального исхода и должен исчезнуть из коллекции.
func (s *Service) checkOrder(ctx context.Context, accounts map[int]smmapi.Account, smmID string, order RemoteOrder) (keep bool, next RemoteOrder) {
	logger := log.WithFields(log.Fields{
		"smm_order": smmID,
		"order_id":  order.MarketOrderID,
	})

	account := order.Account
	if account == 0 {
		account = 1
	}
	acc, ok := accounts[account]
	if !ok {
		logger.WithField("account", account).Warn("Аккаунт не настроен, заказ пропущен")
		return true, order
	}

	orderID, err := strconv.ParseInt(smmID, 10, 64)
	if err != nil {
		logger.WithError(err).Error("Некорректный ID заказа SMM, запись удалена")
		return false, order
	}

	status, err := s.smm.OrderStatus(ctx, acc, orderID)
	if err != nil {
		// сбой опроса не трогает запись, попробуем в следующем цикле
		logger.WithError(err).Warn("Не удалось получить статус заказа")
		return true, order
	}

	switch status.Status {
	case smmapi.StatusCompleted:
		s.completed(ctx, smmID, order)
		return false, order

	case smmapi.StatusCanceled:
		s.canceled(ctx, smmID, order)
		return false, order

	case smmapi.StatusPartial:
		s.partial(ctx, acc, smmID, order, status)
		return false, order

	default:
		order.Status = status.Status
		order.Remains = int64(status.Remains)
		return true, order
	}
}

// completed — заказ выполнен: покупателю предлагается подтвердить заказ.
func (s *Service) completed(ctx context.Context, smmID string, order RemoteOrder) {
	s.send(ctx, order.ChatID,
		"✅ Заказ #"+order.MarketOrderID+" выполнен!\n"+
			"Пожалуйста, перейдите по ссылке "+marketplace.OrderURL(order.MarketOrderID)+
			" и нажмите кнопку «Подтвердить выполнение заказа».")
	log.WithFields(log.Fields{
		"smm_order": smmID,
		"order_id":  order.MarketOrderID,
	}).Info("Заказ выполнен")
}

// canceled — сервис отменил заказ: уведомление и возврат средств.
func (s *Service) canceled(ctx context.Context, smmID string, order RemoteOrder) {
	s.send(ctx, order.ChatID, "❌ Заказ #"+order.MarketOrderID+" отменён!")
	if err := s.host.Refund(ctx, order.MarketOrderID); err != nil {
		log.WithError(err).WithField("order_id", order.MarketOrderID).Error("Возврат по отменённому заказу не удался")
	}
	log.WithFields(log.Fields{
		"smm_order": smmID,
		"order_id":  order.MarketOrderID,
	}).Info("Заказ отменён SMM-сервисом")
}

// partial — заказ выполнен частично. При включённом пересоздании
// остаток заказывается заново, иначе покупатель уведомляется о
// приостановке. Исходная запись удаляется в обоих случаях.
func (s *Service) partial(ctx context.Context, acc smmapi.Account, smmID string, order RemoteOrder, status smmapi.Status) {
	logger := log.WithFields(log.Fields{
		"smm_order": smmID,
		"order_id":  order.MarketOrderID,
		"remains":   status.Remains,
	})

	remains := int64(status.Remains)
	if remains <= 0 {
		logger.Info("Partial без остатка, заказ закрыт")
		return
	}

	if s.settings.Get().RecreateOrder {
		newID, err := s.smm.CreateOrder(ctx, acc, order.ServiceID, order.Link, remains)
		if err == nil {
			recreated := order
			recreated.Amount = remains
			recreated.Remains = 0
			recreated.Status = smmapi.StatusNew
			if err := s.orders.Stage(strconv.FormatInt(newID, 10), recreated); err != nil {
				logger.WithError(err).Error("Не удалось сохранить пересозданный заказ")
			}
			s.send(ctx, order.ChatID,
				"📈 Ваш заказ #"+order.MarketOrderID+" был пересоздан!\n"+
					"🆔 Новый ID заказа: "+strconv.FormatInt(newID, 10)+"\n"+
					"⏳ Остаток выполнения: "+strconv.FormatInt(remains, 10))
			logger.WithField("new_smm_order", newID).Info("Заказ пересоздан на остаток")
			return
		}
		logger.WithError(err).Error("Пересоздание заказа не удалось")
	}

	s.send(ctx, order.ChatID,
		"🔴 Заказ #"+order.MarketOrderID+" был приостановлен!\n"+
			"⏳ Остаток выполнения: "+strconv.FormatInt(remains, 10))
	logger.Info("Заказ приостановлен")
}

func (s *Service) send(ctx context.Context, chatID int64, text string) {
	if chatID == 0 {
		return
	}
	if err := s.host.SendMessage(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения покупателю")
	}
}

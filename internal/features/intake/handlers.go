// Package intake — handlers.go принимает события площадки:
// «новый заказ» и «новое сообщение». Любая ошибка гасится на границе
// обработчика — наружу, в цикл доставки событий, ничего не уходит.
package intake

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/common"
	"autosmm.ru/smm-bot/internal/marketplace"
	"autosmm.ru/smm-bot/internal/smmapi"
)

// Маркеры в описании лота.
var (
	idMarker   = regexp.MustCompile(`ID:\s*(\d+)`)
	id2Marker  = regexp.MustCompile(`ID2:\s*(\d+)`)
	quanMarker = regexp.MustCompile(`#Quan:\s*(\d+)`)
)

// refundNotice — текст площадки о возврате средств оператором.
const refundNotice = "вернул деньги покупателю"

// HandleNewOrder обрабатывает покупку лота.
// Лоты без маркера ID:/ID2: не предназначены для автонакрутки и
// игнорируются. Подходящий заказ сразу сохраняется в payorders.json
// и переходит в состояние ожидания ссылки.
func (s *Service) HandleNewOrder(ctx context.Context, e marketplace.OrderEvent) {
	logger := log.WithField("order_id", e.OrderID)
	logger.Info("Получен новый заказ")

	details, err := s.host.GetOrder(ctx, e.OrderID)
	if err != nil {
		logger.WithError(err).Error("Не удалось получить данные заказа")
		return
	}

	st := s.settings.Get()
	if st.AlertSMMBalanceNew {
		s.notifier.Balances(ctx)
	}

	account, serviceID, multiplier, ok := parseDescription(details.FullDescription)
	if !ok {
		logger.Info("Заказ не предназначен для автонакрутки")
		return
	}

	if err := validateOrderParams(serviceID, e.Amount*multiplier); err != nil {
		logger.WithError(err).Error("Некорректные параметры в описании лота")
		return
	}

	order := PendingLinkOrder{
		OrderID:   e.OrderID,
		Amount:    e.Amount * multiplier,
		Price:     e.Price,
		Currency:  e.Currency,
		Title:     e.Title,
		ServiceID: serviceID,
		Buyer:     details.BuyerUsername,
		CreatedAt: common.FormatDateTime(time.Now()),
		Account:   account,
	}
	if err := s.payRepo.Upsert(order); err != nil {
		logger.WithError(err).Error("Не удалось сохранить заказ")
		return
	}
	logger.WithFields(log.Fields{
		"service": serviceID,
		"amount":  order.Amount,
		"account": account,
		"buyer":   order.Buyer,
	}).Info("Заказ добавлен в список обработки")
}

// HandleMessage обрабатывает сообщение чата площадки.
func (s *Service) HandleMessage(ctx context.Context, e marketplace.MessageEvent) {
	if e.AuthorID != 0 && e.AuthorID == s.host.SelfID() {
		return
	}
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return
	}

	// возврат средств оператором отменяет заказ без дальнейших действий
	if strings.Contains(text, refundNotice) {
		s.handleExternalRefund(ctx, e)
		return
	}
	if e.Type == marketplace.MessageTypeSystem {
		return
	}

	// inline-команды работают в любом состоянии
	if s.handleCommand(ctx, e.ChatID, text) {
		return
	}

	// окно подтверждения «+/-»
	if order, ok := s.pendingOrder(e.ChatID); ok {
		links := extractLinks(text)
		switch {
		case text == "+":
			s.confirm(ctx, order)
		case text == "-":
			s.decline(ctx, order)
		case len(links) > 0:
			s.handleLink(ctx, order, e.ChatID, links[0])
		default:
			s.send(ctx, e.ChatID, "⚪️ Пожалуйста, отправьте +, если всё верно, или -, для возврата средств.")
		}
		return
	}

	// заказ в ожидании ссылки
	order, found, err := s.payRepo.FindByChat(e.ChatID, e.ChatName)
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать оплаченные заказы")
		return
	}
	if !found {
		log.WithField("chat", e.ChatName).Debug("Нет активных заказов для собеседника")
		return
	}

	// диалог привязывается первым же сообщением, дальше заказ ищется
	// только по его ID, смена отображаемого имени уже не мешает
	if order.ChatID == 0 {
		order.ChatID = e.ChatID
		if err := s.payRepo.Upsert(order); err != nil {
			log.WithError(err).WithField("order_id", order.OrderID).Error("Не удалось привязать диалог к заказу")
		}
	}

	links := extractLinks(text)
	if len(links) == 0 {
		return
	}
	s.handleLink(ctx, order, e.ChatID, links[0])
}

// handleExternalRefund убирает заказ, по которому площадка сообщила
// о возврате средств.
func (s *Service) handleExternalRefund(ctx context.Context, e marketplace.MessageEvent) {
	order, found, err := s.payRepo.FindByChat(e.ChatID, e.ChatName)
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать оплаченные заказы")
		return
	}
	if !found {
		return
	}
	s.pending.pop(e.ChatID)
	if err := s.payRepo.Remove(order.OrderID); err != nil {
		log.WithError(err).WithField("order_id", order.OrderID).Error("Не удалось удалить заказ после возврата")
		return
	}
	log.WithField("order_id", order.OrderID).Info("Заказ отменён возвратом средств")
}

// handleCommand распознаёт #статус, #инфо и #рефилл.
func (s *Service) handleCommand(ctx context.Context, chatID int64, text string) bool {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return false
	}
	switch parts[0] {
	case "#статус":
		s.sendStatus(ctx, chatID, parts[1], 1)
	case "#инфо":
		s.sendStatus(ctx, chatID, parts[1], 2)
	case "#рефилл":
		s.refill(ctx, chatID, parts[1])
	default:
		return false
	}
	return true
}

// sendStatus показывает статус заказа указанного SMM-аккаунта.
func (s *Service) sendStatus(ctx context.Context, chatID int64, rawID string, account int) {
	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		s.send(ctx, chatID, "🔴 Не удалось получить статус заказа.")
		return
	}
	acc, err := s.settings.Account(account)
	if err != nil {
		s.send(ctx, chatID, "🔴 Не удалось получить статус заказа.")
		return
	}
	status, err := s.smm.OrderStatus(ctx, acc, orderID)
	if err != nil {
		log.WithError(err).WithField("smm_order", orderID).Warn("Ошибка получения статуса")
		s.send(ctx, chatID, "🔴 Не удалось получить статус заказа.")
		return
	}

	startCount := "*"
	if status.StartCount != 0 {
		startCount = strconv.Itoa(status.StartCount)
	}
	s.send(ctx, chatID, "📈 Статус заказа: "+rawID+
		"\n⠀∟📊 Статус: "+status.Status+
		"\n⠀∟🔢 Было: "+startCount+
		"\n⠀∟👀 Остаток выполнения: "+strconv.Itoa(status.Remains))
}

// refill запрашивает рефилл. Аккаунт берётся из записи активного заказа;
// если заказ неизвестен — аккаунт 1.
func (s *Service) refill(ctx context.Context, chatID int64, rawID string) {
	const failText = "🔴 Ошибка при выполнении рефилла.\n⚠️ Возможно, рефилл еще недоступен!"

	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		s.send(ctx, chatID, failText)
		return
	}

	account := 1
	if orders, err := s.orders.All(); err == nil {
		if rec, ok := orders[rawID]; ok && rec.Account != 0 {
			account = rec.Account
		}
	}
	acc, err := s.settings.Account(account)
	if err != nil {
		s.send(ctx, chatID, failText)
		return
	}
	if err := s.smm.Refill(ctx, acc, orderID); err != nil {
		log.WithError(err).WithField("smm_order", orderID).Warn("Ошибка рефилла")
		s.send(ctx, chatID, failText)
		return
	}
	s.send(ctx, chatID, "✅ Запрос на рефилл отправлен!")
}

// validateOrderParams проверяет извлечённые из описания параметры.
func validateOrderParams(serviceID, amount int64) error {
	if err := smmapi.ValidateServiceID(serviceID); err != nil {
		return err
	}
	return smmapi.ValidateQuantity(amount)
}

// parseDescription извлекает маркеры из полного описания лота.
// ID: — аккаунт 1, ID2: — аккаунт 2, #Quan: — множитель (по умолчанию 1).
func parseDescription(desc string) (account int, serviceID, multiplier int64, ok bool) {
	multiplier = 1
	if m := quanMarker.FindStringSubmatch(desc); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			multiplier = v
		}
	}
	if m := idMarker.FindStringSubmatch(desc); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		return 1, id, multiplier, true
	}
	if m := id2Marker.FindStringSubmatch(desc); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		return 2, id, multiplier, true
	}
	return 0, 0, 0, false
}

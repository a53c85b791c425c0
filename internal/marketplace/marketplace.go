// Package marketplace описывает границу с торговой площадкой.
//
// Сама площадка — внешний коллаборатор: она доставляет события о новых
// заказах и сообщениях и выполняет операции «отправить сообщение»,
// «получить заказ», «вернуть деньги», «баланс». Бот зависит только от
// этого контракта; конкретный адаптер передаётся при сборке приложения.
package marketplace

import "context"

// MessageType — тип входящего сообщения чата.
type MessageType int

const (
	// MessageTypeRegular — обычное сообщение от пользователя
	MessageTypeRegular MessageType = iota
	// MessageTypeSystem — системное сообщение площадки
	MessageTypeSystem
)

// OrderEvent — событие «новый заказ» от площадки.
type OrderEvent struct {
	OrderID  string  // ID заказа на площадке
	Amount   int64   // базовое количество в лоте
	Price    float64 // цена, уплаченная покупателем
	Currency string  // символ валюты (₽, $, €)
	Title    string  // краткое название лота
}

// OrderDetails — полные данные заказа, запрошенные у площадки.
type OrderDetails struct {
	FullDescription string // полное описание лота (содержит маркеры ID:/ID2:/#Quan:)
	BuyerUsername   string // отображаемое имя покупателя
}

// MessageEvent — событие «новое сообщение» от площадки.
type MessageEvent struct {
	ChatID   int64       // ID диалога
	ChatName string      // отображаемое имя собеседника
	AuthorID int64       // ID автора сообщения
	Text     string      // текст сообщения
	Type     MessageType // обычное или системное
}

// Balance — баланс продавца на площадке.
type Balance struct {
	TotalRUB     float64
	AvailableUSD float64
	TotalEUR     float64
}

// OrderURL — страница заказа на площадке, покупателю нужна
// для кнопки «Подтвердить выполнение заказа».
func OrderURL(orderID string) string {
	return "https://funpay.com/orders/" + orderID + "/"
}

// Host — операции площадки, которые использует бот.
type Host interface {
	// SendMessage отправляет текст в диалог с покупателем.
	SendMessage(ctx context.Context, chatID int64, text string) error
	// GetOrder запрашивает полные данные заказа.
	GetOrder(ctx context.Context, orderID string) (OrderDetails, error)
	// Refund возвращает деньги покупателю по заказу.
	Refund(ctx context.Context, orderID string) error
	// Balance возвращает баланс продавца.
	Balance(ctx context.Context) (Balance, error)
	// SelfID — идентификатор собственного аккаунта,
	// чтобы игнорировать свои же сообщения.
	SelfID() int64
}

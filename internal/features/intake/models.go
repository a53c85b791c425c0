// Package intake проводит заказ площадки от покупки до создания накрутки.
// models.go описывает ожидающий заказ («pay-order»).
package intake

// PendingLinkOrder — оплаченный заказ площадки, ожидающий ссылку
// и подтверждение покупателя. Ключ — ID заказа на площадке.
type PendingLinkOrder struct {
	OrderID   string  `json:"order_id"`   // ID заказа на площадке
	Amount    int64   `json:"amount"`     // количество с учётом множителя #Quan
	Price     float64 `json:"price"`      // уплаченная цена
	Currency  string  `json:"currency"`   // символ валюты площадки
	Title     string  `json:"title"`      // название лота
	ServiceID int64   `json:"service_id"` // ID сервиса накрутки из описания лота
	Buyer     string  `json:"buyer"`      // имя покупателя на площадке
	Link      string  `json:"link"`       // ссылка от покупателя, пустая до получения
	ChatID    int64   `json:"chat_id"`    // диалог с покупателем, 0 до первого сообщения
	CreatedAt string  `json:"created_at"` // время покупки
	Account   int     `json:"account"`    // SMM-аккаунт: 1 (ID:) или 2 (ID2:)
}

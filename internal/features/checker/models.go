// Package checker сверяет локальные заказы накрутки со статусами
// SMM-сервиса. models.go описывает запись активного заказа.
package checker

// RemoteOrder — заказ, созданный на стороне SMM-сервиса.
// Ключ записи в orders.json — ID, выданный самим сервисом;
// он глобально уникален и не меняется.
type RemoteOrder struct {
	ServiceID     int64  `json:"service_id"`     // сервис накрутки
	ChatID        int64  `json:"chat_id"`        // диалог с покупателем
	MarketOrderID string `json:"order_id"`       // исходный заказ на площадке
	Link          string `json:"order_url"`      // целевая ссылка
	Amount        int64  `json:"order_amount"`   // заказанное количество
	Remains       int64  `json:"partial_amount"` // остаток по последней сверке
	CreatedAt     string `json:"orderdatetime"`  // время создания
	Status        string `json:"status"`         // pending / new / Completed / Canceled / Partial / прочие
	Account       int    `json:"account"`        // SMM-аккаунт (1 или 2)
}

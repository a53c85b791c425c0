// Package intake — pending.go хранит реестр подтверждений «+/-».
//
// На диалог приходится не больше одного ожидающего подтверждения.
// Реестр живёт в памяти под собственным мьютексом; после рестарта
// состояние восстанавливается из payorders.json (заказ с непустой
// ссылкой и привязанным диалогом — неявное ожидающее подтверждение).
package intake

import "sync"

// confirmations — реестр диалогов, ожидающих ответа «+» или «-».
type confirmations struct {
	mu     sync.Mutex
	byChat map[int64]string // chat_id → order_id площадки
}

func newConfirmations() *confirmations {
	return &confirmations{byChat: make(map[int64]string)}
}

// set регистрирует подтверждение, вытесняя предыдущее по этому диалогу.
func (c *confirmations) set(chatID int64, orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byChat[chatID] = orderID
}

// get возвращает ID заказа, ожидающего подтверждения в диалоге.
func (c *confirmations) get(chatID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byChat[chatID]
	return id, ok
}

// pop снимает подтверждение с диалога.
func (c *confirmations) pop(chatID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byChat[chatID]
	if ok {
		delete(c.byChat, chatID)
	}
	return id, ok
}

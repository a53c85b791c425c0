// Package intake — repository.go работает со списком оплаченных заказов
// (payorders.json). Все изменения — read-modify-write под мьютексом
// коллекции, атомарные относительно других писателей.
package intake

import (
	"sync"

	"autosmm.ru/smm-bot/internal/storage"
)

// PayOrderRepository — слой доступа к payorders.json.
type PayOrderRepository struct {
	store *storage.Store
	mu    sync.Mutex
}

// NewPayOrderRepository создаёт репозиторий оплаченных заказов.
func NewPayOrderRepository(store *storage.Store) *PayOrderRepository {
	return &PayOrderRepository{store: store}
}

func (r *PayOrderRepository) load() ([]PendingLinkOrder, error) {
	var orders []PendingLinkOrder
	if _, err := r.store.Load(storage.PayOrdersFile, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// List возвращает все ожидающие заказы.
func (r *PayOrderRepository) List() ([]PendingLinkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Upsert добавляет заказ или заменяет существующий с тем же OrderID.
// ID заказа площадки уникален в списке в любой момент.
func (r *PayOrderRepository) Upsert(order PendingLinkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range orders {
		if orders[i].OrderID == order.OrderID {
			orders[i] = order
			replaced = true
			break
		}
	}
	if !replaced {
		orders = append(orders, order)
	}
	return r.store.Save(storage.PayOrdersFile, orders)
}

// Remove удаляет заказ по ID площадки. Отсутствие записи — не ошибка.
func (r *PayOrderRepository) Remove(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	kept := orders[:0]
	for _, o := range orders {
		if o.OrderID != orderID {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(orders) {
		return nil
	}
	return r.store.Save(storage.PayOrdersFile, kept)
}

// Find возвращает заказ по ID площадки.
func (r *PayOrderRepository) Find(orderID string) (PendingLinkOrder, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return PendingLinkOrder{}, false, err
	}
	for _, o := range orders {
		if o.OrderID == orderID {
			return o, true, nil
		}
	}
	return PendingLinkOrder{}, false, nil
}

// FindByChat ищет заказ по привязанному диалогу, а затем по имени
// покупателя. Привязка по chat_id появляется после первого сообщения,
// поиск по имени нужен только для первого контакта.
func (r *PayOrderRepository) FindByChat(chatID int64, chatName string) (PendingLinkOrder, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return PendingLinkOrder{}, false, err
	}
	for _, o := range orders {
		if o.ChatID != 0 && o.ChatID == chatID {
			return o, true, nil
		}
	}
	if chatName != "" {
		for _, o := range orders {
			if o.ChatID == 0 && o.Buyer == chatName {
				return o, true, nil
			}
		}
	}
	return PendingLinkOrder{}, false, nil
}

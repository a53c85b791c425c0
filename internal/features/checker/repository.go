// Package checker — repository.go работает с коллекциями orders.json
// (активные заказы) и cashlist.json (буфер пересозданных заказов).
// У каждой коллекции свой мьютекс — операции над одной не блокируют другую.
package checker

import (
	"sync"

	"autosmm.ru/smm-bot/internal/storage"
)

// OrderRepository — слой доступа к orders.json и cashlist.json.
type OrderRepository struct {
	store      *storage.Store
	ordersMu   sync.Mutex
	cashlistMu sync.Mutex
}

// NewOrderRepository создаёт репозиторий активных заказов.
func NewOrderRepository(store *storage.Store) *OrderRepository {
	return &OrderRepository{store: store}
}

// All возвращает все активные заказы (ключ — ID на стороне SMM-сервиса).
func (r *OrderRepository) All() (map[string]RemoteOrder, error) {
	r.ordersMu.Lock()
	defer r.ordersMu.Unlock()

	orders := make(map[string]RemoteOrder)
	if _, err := r.store.Load(storage.OrdersFile, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Add добавляет заказ в коллекцию активных.
func (r *OrderRepository) Add(smmOrderID string, order RemoteOrder) error {
	r.ordersMu.Lock()
	defer r.ordersMu.Unlock()

	orders := make(map[string]RemoteOrder)
	if _, err := r.store.Load(storage.OrdersFile, &orders); err != nil {
		return err
	}
	orders[smmOrderID] = order
	return r.store.Save(storage.OrdersFile, orders)
}

// Commit применяет результат цикла сверки одной записью на диск.
// Коллекция перечитывается под мьютексом и изменения накладываются
// как дельта: записи, добавленные другими писателями во время цикла,
// сохраняются. Пересозданные заказы из буфера вливаются последними,
// при совпадении ключей существующая запись главнее.
func (r *OrderRepository) Commit(removed []string, updated, staged map[string]RemoteOrder) error {
	r.ordersMu.Lock()
	defer r.ordersMu.Unlock()

	orders := make(map[string]RemoteOrder)
	if _, err := r.store.Load(storage.OrdersFile, &orders); err != nil {
		return err
	}
	for _, id := range removed {
		delete(orders, id)
	}
	for id, order := range updated {
		orders[id] = order
	}
	for id, order := range staged {
		if _, exists := orders[id]; !exists {
			orders[id] = order
		}
	}
	return r.store.Save(storage.OrdersFile, orders)
}

// Stage откладывает пересозданный заказ в cashlist.json.
// Буфер нужен, чтобы не менять коллекцию, по которой идёт цикл.
func (r *OrderRepository) Stage(smmOrderID string, order RemoteOrder) error {
	r.cashlistMu.Lock()
	defer r.cashlistMu.Unlock()

	staged := make(map[string]RemoteOrder)
	if _, err := r.store.Load(storage.CashlistFile, &staged); err != nil {
		return err
	}
	staged[smmOrderID] = order
	return r.store.Save(storage.CashlistFile, staged)
}

// Staged возвращает содержимое буфера пересозданных заказов.
func (r *OrderRepository) Staged() (map[string]RemoteOrder, error) {
	r.cashlistMu.Lock()
	defer r.cashlistMu.Unlock()

	staged := make(map[string]RemoteOrder)
	if _, err := r.store.Load(storage.CashlistFile, &staged); err != nil {
		return nil, err
	}
	return staged, nil
}

// ClearStaged очищает буфер после слияния с основной коллекцией.
func (r *OrderRepository) ClearStaged() error {
	r.cashlistMu.Lock()
	defer r.cashlistMu.Unlock()
	return r.store.Save(storage.CashlistFile, map[string]RemoteOrder{})
}

// Package smmapi — клиент SMM-сервисов (панели накрутки).
//
// Протокол — GET с query-параметрами к одному базовому URL, операции
// различаются параметром action: add, status, refill, cancel, balance.
// Ответ — нетипизированный JSON: ключ order/refill/cancel сигнализирует
// успех, ключ error — серверную ошибку. Решение «число или ошибка»
// принимается один раз здесь и наружу уходит типизированным: id заказа
// либо *APIError. Клиент добавляет к сырому протоколу только устойчивость:
// валидацию, таймаут, повторы с экспоненциальной задержкой.
package smmapi

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/common"
)

// Статусы заказа, которые возвращает SMM-сервис.
const (
	StatusPending   = "pending"
	StatusNew       = "new"
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
	StatusPartial   = "Partial"
)

// Account — доступы к одному SMM-сервису.
type Account struct {
	URL string
	Key string
}

// Tuning — сетевые параметры запроса, читаются из настроек на каждый вызов.
type Tuning struct {
	Timeout time.Duration
	Retries int
}

// TuningFunc отдаёт актуальные сетевые параметры.
type TuningFunc func() Tuning

// APIError — ошибка, о которой сообщил сам SMM-сервис.
// Не повторяется и показывается пользователю как есть.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Status — ответ action=status.
type Status struct {
	Status     string
	StartCount int
	Remains    int
	Charge     float64
	Currency   string
}

// Client — клиент SMM API. Потокобезопасен.
type Client struct {
	http   *resty.Client
	tuning TuningFunc
}

// NewClient создаёт клиент. tuning читает таймаут и число попыток
// из настроек, поэтому их можно менять без перезапуска.
func NewClient(tuning TuningFunc) *Client {
	return &Client{
		http:   resty.New(),
		tuning: tuning,
	}
}

// maxRetryBackoff — потолок паузы между попытками; max_retries задаётся
// оператором произвольно, без потолка сдвиг ушёл бы в переполнение.
const maxRetryBackoff = 60 * time.Second

// retryBackoff — пауза перед попыткой attempt (1s, 2s, 4s… до потолка).
func retryBackoff(attempt int) time.Duration {
	if attempt > 6 {
		return maxRetryBackoff
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// call выполняет один GET с повторами.
// Повторяются только транспортные ошибки и 5xx; задержка между попытками
// удваивается (1s, 2s, 4s…). Некорректный JSON не повторяется.
func (c *Client) call(ctx context.Context, acc Account, params map[string]string) (map[string]json.RawMessage, error) {
	t := c.tuning()
	if t.Retries <= 0 {
		t.Retries = 1
	}
	if t.Timeout <= 0 {
		t.Timeout = 30 * time.Second
	}

	params["key"] = acc.Key

	var lastErr error
	for attempt := 0; attempt < t.Retries; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff(attempt)
			log.WithFields(log.Fields{
				"attempt": attempt + 1,
				"backoff": backoff,
			}).Warn("Повтор запроса к SMM API")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, t.Timeout)
		resp, err := c.http.R().
			SetContext(reqCtx).
			SetQueryParams(params).
			Get(acc.URL)
		cancel()

		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() >= 500 {
			lastErr = fmt.Errorf("SMM API вернул HTTP %d", resp.StatusCode())
			continue
		}

		var m map[string]json.RawMessage
		if err := json.Unmarshal(resp.Body(), &m); err != nil {
			return nil, fmt.Errorf("декодирование ответа SMM API: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("SMM API недоступен после %d попыток: %w", t.Retries, lastErr)
}

// CreateOrder создаёт заказ (action=add) и возвращает ID на стороне сервиса.
// Ошибка сервиса приходит как *APIError с оригинальным текстом.
func (c *Client) CreateOrder(ctx context.Context, acc Account, serviceID int64, link string, quantity int64) (int64, error) {
	if err := ValidateServiceID(serviceID); err != nil {
		return 0, err
	}
	if err := ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	if link == "" {
		return 0, common.ErrEmptyLink
	}

	log.WithFields(log.Fields{
		"service":  serviceID,
		"quantity": quantity,
	}).Info("Создание заказа в SMM")

	m, err := c.call(ctx, acc, map[string]string{
		"action":   "add",
		"service":  strconv.FormatInt(serviceID, 10),
		"link":     link,
		"quantity": strconv.FormatInt(quantity, 10),
	})
	if err != nil {
		return 0, err
	}

	if raw, ok := m["order"]; ok {
		id, err := asID(raw)
		if err != nil {
			// В поле order пришло не число — сервис так сообщает об ошибке
			return 0, &APIError{Message: asString(raw)}
		}
		return id, nil
	}
	if raw, ok := m["error"]; ok {
		return 0, &APIError{Message: asString(raw)}
	}
	return 0, common.ErrUnknownResponse
}

// OrderStatus запрашивает статус заказа (action=status).
func (c *Client) OrderStatus(ctx context.Context, acc Account, orderID int64) (Status, error) {
	m, err := c.call(ctx, acc, map[string]string{
		"action": "status",
		"order":  strconv.FormatInt(orderID, 10),
	})
	if err != nil {
		return Status{}, err
	}
	if raw, ok := m["error"]; ok {
		return Status{}, &APIError{Message: asString(raw)}
	}

	st := Status{
		Status:   asString(m["status"]),
		Currency: asString(m["currency"]),
	}
	st.StartCount, _ = asInt(m["start_count"])
	st.Remains, _ = asInt(m["remains"])
	st.Charge, _ = asFloat(m["charge"])
	if st.Status == "" {
		return Status{}, common.ErrUnknownResponse
	}
	return st, nil
}

// Refill запрашивает рефилл заказа (action=refill).
func (c *Client) Refill(ctx context.Context, acc Account, orderID int64) error {
	m, err := c.call(ctx, acc, map[string]string{
		"action": "refill",
		"order":  strconv.FormatInt(orderID, 10),
	})
	if err != nil {
		return err
	}
	if _, ok := m["refill"]; ok {
		return nil
	}
	if raw, ok := m["error"]; ok {
		return &APIError{Message: asString(raw)}
	}
	return common.ErrUnknownResponse
}

// Cancel отменяет заказ (action=cancel).
func (c *Client) Cancel(ctx context.Context, acc Account, orderID int64) error {
	m, err := c.call(ctx, acc, map[string]string{
		"action": "cancel",
		"order":  strconv.FormatInt(orderID, 10),
	})
	if err != nil {
		return err
	}
	if _, ok := m["cancel"]; ok {
		return nil
	}
	if raw, ok := m["error"]; ok {
		return &APIError{Message: asString(raw)}
	}
	return common.ErrUnknownResponse
}

var balancePattern = regexp.MustCompile(`\d+\.\d+`)

// Balance возвращает баланс аккаунта (action=balance).
// Поле balance бывает произвольной строкой, число извлекается по шаблону
// десятичной дроби; если дроби нет — common.ErrNoBalanceValue.
func (c *Client) Balance(ctx context.Context, acc Account) (float64, string, error) {
	m, err := c.call(ctx, acc, map[string]string{"action": "balance"})
	if err != nil {
		return 0, "", err
	}
	if raw, ok := m["error"]; ok {
		return 0, "", &APIError{Message: asString(raw)}
	}

	match := balancePattern.FindString(asString(m["balance"]))
	if match == "" {
		return 0, "", common.ErrNoBalanceValue
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, "", common.ErrNoBalanceValue
	}

	currency := asString(m["currency"])
	if currency == "" {
		currency = "USD"
	}
	return value, currency, nil
}

// --- лояльный разбор нетипизированных полей ответа ---

// asString возвращает строковое представление значения:
// строки без кавычек, остальное — как в JSON.
func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// asID разбирает ID заказа: JSON-число или строка из цифр.
func asID(raw json.RawMessage) (int64, error) {
	s := asString(raw)
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("не числовой ID: %q", s)
	}
	return id, nil
}

// asInt разбирает целое из числа или строки.
func asInt(raw json.RawMessage) (int, error) {
	s := asString(raw)
	if s == "" {
		return 0, fmt.Errorf("пустое значение")
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return v, nil
}

// asFloat разбирает дробное из числа или строки.
func asFloat(raw json.RawMessage) (float64, error) {
	s := asString(raw)
	if s == "" {
		return 0, fmt.Errorf("пустое значение")
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

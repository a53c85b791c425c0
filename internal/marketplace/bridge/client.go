// Package bridge — HTTP-адаптер площадки. Бот работает не с площадкой
// напрямую, а с мостом хост-процесса: мост держит сессию площадки и
// отдаёт события и операции по простому HTTP API с bearer-токеном.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/marketplace"
)

// Handler принимает события площадки.
type Handler interface {
	HandleNewOrder(ctx context.Context, e marketplace.OrderEvent)
	HandleMessage(ctx context.Context, e marketplace.MessageEvent)
}

// Client реализует marketplace.Host поверх HTTP-моста.
type Client struct {
	http   *resty.Client
	selfID int64
}

// NewClient создаёт клиент моста площадки.
func NewClient(baseURL, token string, selfID int64) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(token).
			SetTimeout(30 * time.Second),
		selfID: selfID,
	}
}

// SelfID — идентификатор собственного аккаунта продавца.
func (c *Client) SelfID() int64 { return c.selfID }

// SendMessage отправляет текст в диалог с покупателем.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"chat_id": chatID, "text": text}).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("мост площадки: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("мост площадки: статус %d", resp.StatusCode())
	}
	return nil
}

// GetOrder запрашивает полные данные заказа.
func (c *Client) GetOrder(ctx context.Context, orderID string) (marketplace.OrderDetails, error) {
	var body struct {
		FullDescription string `json:"full_description"`
		BuyerUsername   string `json:"buyer_username"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/orders/" + orderID)
	if err != nil {
		return marketplace.OrderDetails{}, fmt.Errorf("мост площадки: %w", err)
	}
	if resp.IsError() {
		return marketplace.OrderDetails{}, fmt.Errorf("мост площадки: статус %d", resp.StatusCode())
	}
	return marketplace.OrderDetails{
		FullDescription: body.FullDescription,
		BuyerUsername:   body.BuyerUsername,
	}, nil
}

// Refund возвращает деньги покупателю по заказу.
func (c *Client) Refund(ctx context.Context, orderID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Post("/orders/" + orderID + "/refund")
	if err != nil {
		return fmt.Errorf("мост площадки: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("мост площадки: статус %d", resp.StatusCode())
	}
	return nil
}

// Balance возвращает баланс продавца на площадке.
func (c *Client) Balance(ctx context.Context) (marketplace.Balance, error) {
	var body struct {
		TotalRUB     float64 `json:"total_rub"`
		AvailableUSD float64 `json:"available_usd"`
		TotalEUR     float64 `json:"total_eur"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/balance")
	if err != nil {
		return marketplace.Balance{}, fmt.Errorf("мост площадки: %w", err)
	}
	if resp.IsError() {
		return marketplace.Balance{}, fmt.Errorf("мост площадки: статус %d", resp.StatusCode())
	}
	return marketplace.Balance{
		TotalRUB:     body.TotalRUB,
		AvailableUSD: body.AvailableUSD,
		TotalEUR:     body.TotalEUR,
	}, nil
}

// event — запись ленты событий моста.
type event struct {
	Type    string `json:"type"` // "order" | "message"
	Order   *struct {
		OrderID  string  `json:"order_id"`
		Amount   int64   `json:"amount"`
		Price    float64 `json:"price"`
		Currency string  `json:"currency"`
		Title    string  `json:"title"`
	} `json:"order,omitempty"`
	Message *struct {
		ChatID   int64  `json:"chat_id"`
		ChatName string `json:"chat_name"`
		AuthorID int64  `json:"author_id"`
		Text     string `json:"text"`
		System   bool   `json:"system"`
	} `json:"message,omitempty"`
}

// Listen — long-poll цикл событий моста. Курсор держится в памяти:
// после рестарта бот начинает с текущего хвоста ленты, а состояние
// заказов восстанавливается из хранилища.
func (c *Client) Listen(ctx context.Context, handler Handler) {
	var cursor int64
	backoff := time.Second

	log.Info("Слушаем события площадки")
	for {
		if ctx.Err() != nil {
			log.Info("Приём событий площадки остановлен")
			return
		}

		var body struct {
			Cursor int64   `json:"cursor"`
			Events []event `json:"events"`
		}
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"cursor":  fmt.Sprintf("%d", cursor),
				"timeout": "25",
			}).
			SetResult(&body).
			Get("/events")
		if err != nil || resp.IsError() {
			if ctx.Err() != nil {
				log.Info("Приём событий площадки остановлен")
				return
			}
			if err != nil {
				log.WithError(err).Warn("Ошибка получения событий площадки")
			} else {
				log.WithField("status", resp.StatusCode()).Warn("Ошибка получения событий площадки")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		cursor = body.Cursor

		for _, e := range body.Events {
			c.dispatch(ctx, handler, e)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, handler Handler, e event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Паника в обработчике события площадки")
		}
	}()

	switch {
	case e.Type == "order" && e.Order != nil:
		handler.HandleNewOrder(ctx, marketplace.OrderEvent{
			OrderID:  e.Order.OrderID,
			Amount:   e.Order.Amount,
			Price:    e.Order.Price,
			Currency: e.Order.Currency,
			Title:    e.Order.Title,
		})
	case e.Type == "message" && e.Message != nil:
		msgType := marketplace.MessageTypeRegular
		if e.Message.System {
			msgType = marketplace.MessageTypeSystem
		}
		handler.HandleMessage(ctx, marketplace.MessageEvent{
			ChatID:   e.Message.ChatID,
			ChatName: e.Message.ChatName,
			AuthorID: e.Message.AuthorID,
			Text:     e.Message.Text,
			Type:     msgType,
		})
	default:
		log.WithField("type", e.Type).Debug("Неизвестное событие площадки")
	}
}

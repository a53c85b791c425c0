// Package notify — rates.go: курс валют для пересчёта расходов на
// накрутку в валюту заказа. Источник курсов — coingate.
package notify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const ratesBaseURL = "https://api.coingate.com/v2/rates/merchant"

// RateClient запрашивает курс валютной пары.
type RateClient struct {
	http *resty.Client
}

// NewRateClient создаёт клиент курсов валют.
func NewRateClient() *RateClient {
	return &RateClient{
		http: resty.New().
			SetBaseURL(ratesBaseURL).
			SetTimeout(10 * time.Second),
	}
}

// Rate возвращает курс from → to. Ошибка сети или разбора даёт курс 1.0:
// уведомление с неконвертированной суммой полезнее отсутствия уведомления.
func (r *RateClient) Rate(ctx context.Context, from, to string) float64 {
	resp, err := r.http.R().
		SetContext(ctx).
		Get("/" + from + "/" + to)
	if err != nil {
		log.WithError(err).Warn("Ошибка получения курса валют")
		return 1.0
	}
	if resp.IsError() {
		log.WithField("status", resp.StatusCode()).Warn("Ошибка получения курса валют")
		return 1.0
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(string(resp.Body())), 64)
	if err != nil {
		log.WithError(err).Warn("Некорректный ответ сервиса курсов")
		return 1.0
	}
	return rate
}

// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять покупателю понятные сообщения.
package common

import "errors"

// Ошибки настроек и API-доступов
var (
	// ErrAPINotConfigured — URL или ключ SMM-сервиса не заданы
	ErrAPINotConfigured = errors.New("API не настроен")
	// ErrInvalidAPIKey — ключ короче 10 символов или содержит недопустимые символы
	ErrInvalidAPIKey = errors.New("некорректный API ключ")
	// ErrInvalidURL — строка не является корректным http(s) URL
	ErrInvalidURL = errors.New("некорректный формат URL")
)

// Ошибки параметров заказа
var (
	// ErrServiceIDRange — ID сервиса вне диапазона 1..999999
	ErrServiceIDRange = errors.New("ID сервиса вне допустимого диапазона")
	// ErrQuantityRange — количество вне диапазона 1..10000000
	ErrQuantityRange = errors.New("количество вне допустимого диапазона")
	// ErrEmptyLink — ссылка не указана
	ErrEmptyLink = errors.New("ссылка не может быть пустой")
	// ErrPrivateLink — закрытый Telegram канал/группа при выключенном set_tg_private
	ErrPrivateLink = errors.New("закрытые каналы/группы не поддерживаются")
)

// Ошибки SMM API
var (
	// ErrNoBalanceValue — в ответе balance не нашлось числа
	ErrNoBalanceValue = errors.New("в ответе нет значения баланса")
	// ErrUnknownResponse — ответ без ключей order/refill/cancel/error
	ErrUnknownResponse = errors.New("неизвестный ответ API")
)

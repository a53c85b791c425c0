// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование времени и ссылок.
package common

import (
	"strings"
	"time"
)

// DateTimeLayout — формат даты/времени в персистентных записях и сообщениях.
const DateTimeLayout = "2006-01-02 15:04:05"

// PluralizeOrders возвращает правильную форму слова «заказ» для числа n.
//
// Примеры:
//
//	PluralizeOrders(1)  → "заказ"
//	PluralizeOrders(3)  → "заказа"
//	PluralizeOrders(11) → "заказов"
func PluralizeOrders(n int) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwo := n % 100

	if lastDigit == 1 && lastTwo != 11 {
		return "заказ"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwo < 12 || lastTwo > 14) {
		return "заказа"
	}
	return "заказов"
}

// FormatDateTime форматирует время для отображения пользователю.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// StripScheme убирает http(s):// из ссылки для компактного отображения.
func StripScheme(link string) string {
	link = strings.TrimPrefix(link, "https://")
	return strings.TrimPrefix(link, "http://")
}

// Package smmapi — validate.go проверяет входные данные до любого сетевого
// вызова. Эти же проверки применяются к параметрам, извлечённым из описания
// лота, и к значениям, которые оператор сохраняет в настройках.
package smmapi

import (
	"fmt"
	"net/url"
	"regexp"

	"autosmm.ru/smm-bot/internal/common"
)

// Пределы SMM-сервисов.
const (
	MaxServiceID = 999999
	MaxQuantity  = 10000000
)

var apiKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateServiceID проверяет ID сервиса: 1..999999.
func ValidateServiceID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: должен быть положительным", common.ErrServiceIDRange)
	}
	if id > MaxServiceID {
		return fmt.Errorf("%w: слишком большой", common.ErrServiceIDRange)
	}
	return nil
}

// ValidateQuantity проверяет количество: 1..10000000.
func ValidateQuantity(q int64) error {
	if q <= 0 {
		return fmt.Errorf("%w: должно быть больше нуля", common.ErrQuantityRange)
	}
	if q > MaxQuantity {
		return fmt.Errorf("%w: слишком большое", common.ErrQuantityRange)
	}
	return nil
}

// ValidateAPIKey проверяет ключ API: минимум 10 символов, [a-zA-Z0-9_-].
func ValidateAPIKey(key string) error {
	if len(key) < 10 {
		return fmt.Errorf("%w: слишком короткий", common.ErrInvalidAPIKey)
	}
	if !apiKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: недопустимые символы", common.ErrInvalidAPIKey)
	}
	return nil
}

// ValidateURL проверяет, что строка — корректный http(s) URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: пустая строка", common.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: ожидается http или https", common.ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: нет хоста", common.ErrInvalidURL)
	}
	return nil
}

// Package intake — links.go извлекает и проверяет ссылки покупателя.
package intake

import (
	"regexp"
	"strings"

	"autosmm.ru/smm-bot/internal/common"
)

var linkPattern = regexp.MustCompile(`https?://[A-Za-z0-9$\-_.+!*'(),%/?=&:#~@]+`)

// extractLinks возвращает все http(s)-ссылки из текста, в порядке появления.
func extractLinks(text string) []string {
	if text == "" {
		return nil
	}
	return linkPattern.FindAllString(text, -1)
}

// validateTelegramLink отклоняет ссылки на закрытые Telegram каналы/группы
// (инвайты t.me/+… и внутренние t.me/c/…), если поддержка не включена.
// Не-Telegram ссылки проходят без проверки.
func validateTelegramLink(link string, allowPrivate bool) error {
	lower := strings.ToLower(link)
	if !strings.Contains(lower, "t.me") && !strings.Contains(lower, "telegram.me") {
		return nil
	}
	if allowPrivate {
		return nil
	}
	if strings.Contains(link, "/c/") || strings.Contains(link, "+") {
		return common.ErrPrivateLink
	}
	return nil
}

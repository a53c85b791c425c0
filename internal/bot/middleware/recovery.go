package middleware

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic гасит панику обработчика: один апдейт не должен
// останавливать приём остальных. Вызывается через defer.
func RecoverFromPanic(component string) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": component,
			"panic":     r,
			"stack":     string(debug.Stack()),
		}).Error("Паника в обработчике, восстановлено")
	}
}

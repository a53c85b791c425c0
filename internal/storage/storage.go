// Package storage — файловое хранилище коллекций бота.
// Каждая коллекция (orders, payorders, settings, cashlist) — отдельный
// JSON-документ в директории хранилища.
//
// Гарантии:
//   - запись атомарна: сериализация во временный файл и os.Rename поверх
//     целевого, частично записанный файл никогда не виден читателям;
//   - повреждённый документ не роняет процесс: файл переименовывается в
//     бэкап с timestamp-суффиксом, читателю возвращается «не найдено».
//
// Взаимное исключение по коллекции — ответственность репозиториев,
// владеющих коллекцией (у каждого свой мьютекс).
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// Имена файлов коллекций.
const (
	OrdersFile    = "orders.json"
	PayOrdersFile = "payorders.json"
	SettingsFile  = "settings.json"
	CashlistFile  = "cashlist.json"
)

// Store читает и пишет JSON-документы в директории хранилища.
type Store struct {
	dir string
}

// New создаёт хранилище в указанной директории.
// Директория создаётся лениво при первой записи.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir возвращает директорию хранилища.
func (s *Store) Dir() string {
	return s.dir
}

// Load читает документ коллекции в v.
// Отсутствующий файл — не ошибка: возвращается (false, nil), v не трогается.
// Повреждённый файл переименовывается в бэкап и тоже даёт (false, nil).
func (s *Store) Load(file string, v any) (bool, error) {
	path := filepath.Join(s.dir, file)

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("чтение %s: %w", path, err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		backup := fmt.Sprintf("%s.corrupted_%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, backup); renameErr != nil {
			log.WithError(renameErr).WithField("file", path).Error("Не удалось сохранить бэкап повреждённого файла")
		} else {
			log.WithFields(log.Fields{
				"file":   path,
				"backup": backup,
			}).Warn("Повреждённый JSON сохранён как бэкап, используется значение по умолчанию")
		}
		return false, nil
	}
	return true, nil
}

// Save атомарно записывает документ коллекции.
func (s *Store) Save(file string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("создание директории %s: %w", s.dir, err)
	}

	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", file, err)
	}
	b = append(b, '\n')

	path := filepath.Join(s.dir, file)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		// временный файл не оставляем
		_ = os.Remove(tmp)
		return fmt.Errorf("переименование %s: %w", tmp, err)
	}
	return nil
}

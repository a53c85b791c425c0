// Package settings — repository.go отвечает за чтение/запись settings.json.
// Доступ к файлу сериализуется мьютексом коллекции.
package settings

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/storage"
)

// Repository — слой доступа к settings.json.
type Repository struct {
	store *storage.Store
	mu    sync.Mutex
}

// NewRepository создаёт репозиторий настроек поверх хранилища.
func NewRepository(store *storage.Store) *Repository {
	return &Repository{store: store}
}

// Load читает настройки с файла.
// Отсутствующий файл создаётся со значениями по умолчанию.
// Если в файле нет недавно добавленных ключей, они дописываются
// (значениями по умолчанию) с сохранением всех неизвестных ключей.
func (r *Repository) Load() (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Defaults()
	found, err := r.store.Load(storage.SettingsFile, &s)
	if err != nil {
		return Defaults(), err
	}
	if !found {
		if err := r.store.Save(storage.SettingsFile, s); err != nil {
			return s, err
		}
		log.Info("settings.json создан со значениями по умолчанию")
		return s, nil
	}

	// Дописываем новые ключи, которых ещё нет в файле
	if r.missingKnownKeys() {
		if err := r.store.Save(storage.SettingsFile, s); err != nil {
			return s, err
		}
		log.Info("settings.json дополнен новыми ключами по умолчанию")
	}
	return s, nil
}

// Save записывает настройки на диск.
func (r *Repository) Save(s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Save(storage.SettingsFile, s)
}

// missingKnownKeys проверяет, все ли известные ключи присутствуют в файле.
// Вызывается под мьютексом.
func (r *Repository) missingKnownKeys() bool {
	var raw map[string]json.RawMessage
	found, err := r.store.Load(storage.SettingsFile, &raw)
	if err != nil || !found {
		return false
	}
	for k := range knownKeys {
		if _, ok := raw[k]; !ok {
			return true
		}
	}
	return false
}

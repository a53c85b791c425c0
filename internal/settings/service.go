// Package settings — service.go содержит кэш и валидируемые сеттеры.
//
// Чтения идут через кэш с TTL 60 секунд: настройки запрашиваются на каждое
// сообщение, и без кэша каждый апдейт стоил бы чтения файла. Каждая успешная
// запись синхронно сбрасывает кэш.
package settings

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/common"
	"autosmm.ru/smm-bot/internal/smmapi"
)

// cacheTTL — окно свежести кэша настроек.
const cacheTTL = 60 * time.Second

// Service — доступ к настройкам с кэшированием и валидацией изменений.
type Service struct {
	repo *Repository

	mu      sync.Mutex
	cached  *Settings
	fetched time.Time
	ttl     time.Duration
}

// NewService создаёт сервис настроек.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, ttl: cacheTTL}
}

// Get возвращает настройки, при необходимости перечитывая файл.
// Ошибка чтения логируется, возвращаются значения по умолчанию либо
// последняя удачно прочитанная версия.
func (s *Service) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetched) <= s.ttl {
		return *s.cached
	}

	loaded, err := s.repo.Load()
	if err != nil {
		log.WithError(err).Error("Не удалось прочитать настройки")
		if s.cached != nil {
			return *s.cached
		}
		return Defaults()
	}
	s.cached = &loaded
	s.fetched = time.Now()
	return loaded
}

// Invalidate сбрасывает кэш — следующий Get перечитает файл.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.fetched = time.Time{}
}

// mutate перечитывает настройки, применяет изменение и сохраняет.
func (s *Service) mutate(fn func(*Settings) error) error {
	current, err := s.repo.Load()
	if err != nil {
		return err
	}
	if err := fn(&current); err != nil {
		return err
	}
	if err := s.repo.Save(current); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// SetAPIURL обновляет URL SMM-сервиса (account 1 или 2) с валидацией.
func (s *Service) SetAPIURL(account int, url string) error {
	if err := smmapi.ValidateURL(url); err != nil {
		return err
	}
	return s.mutate(func(st *Settings) error {
		switch account {
		case 1:
			st.APIURL = url
		case 2:
			st.APIURL2 = url
		default:
			return fmt.Errorf("неизвестный аккаунт %d", account)
		}
		return nil
	})
}

// SetAPIKey обновляет ключ SMM-сервиса (account 1 или 2) с валидацией.
func (s *Service) SetAPIKey(account int, key string) error {
	if err := smmapi.ValidateAPIKey(key); err != nil {
		return err
	}
	return s.mutate(func(st *Settings) error {
		switch account {
		case 1:
			st.APIKey = key
		case 2:
			st.APIKey2 = key
		default:
			return fmt.Errorf("неизвестный аккаунт %d", account)
		}
		return nil
	})
}

// SetFlag переключает булев флаг по его ключу из settings.json.
func (s *Service) SetFlag(key string, value bool) error {
	return s.mutate(func(st *Settings) error {
		switch key {
		case "set_alert_neworder":
			st.AlertNewOrder = value
		case "set_alert_errororder":
			st.AlertErrorOrder = value
		case "set_alert_smmbalance_new":
			st.AlertSMMBalanceNew = value
		case "set_alert_smmbalance":
			st.AlertSMMBalance = value
		case "set_refund_smm":
			st.RefundOnError = value
		case "set_start_mess":
			st.StartMessage = value
		case "set_auto_refill":
			st.AutoRefill = value
		case "set_tg_private":
			st.AllowTGPrivate = value
		case "set_recreated_order":
			st.RecreateOrder = value
		default:
			return fmt.Errorf("неизвестный флаг %q", key)
		}
		return nil
	})
}

// SetTuning обновляет числовые параметры. Нулевое значение — «не менять».
func (s *Service) SetTuning(apiTimeout, checkInterval, maxRetries int) error {
	if apiTimeout < 0 || checkInterval < 0 || maxRetries < 0 {
		return fmt.Errorf("параметры тюнинга должны быть положительными")
	}
	return s.mutate(func(st *Settings) error {
		if apiTimeout > 0 {
			st.APITimeout = apiTimeout
		}
		if checkInterval > 0 {
			st.CheckInterval = checkInterval
		}
		if maxRetries > 0 {
			st.MaxRetries = maxRetries
		}
		return nil
	})
}

// Account возвращает доступы к SMM-сервису по номеру аккаунта (1 или 2).
// Некорректно сохранённые значения считаются не заданными.
func (s *Service) Account(account int) (smmapi.Account, error) {
	st := s.Get()

	url, key := st.APIURL, st.APIKey
	if account == 2 {
		url, key = st.APIURL2, st.APIKey2
	}
	if url == "" || key == "" {
		return smmapi.Account{}, common.ErrAPINotConfigured
	}
	if err := smmapi.ValidateURL(url); err != nil {
		log.WithError(err).WithField("account", account).Warn("Некорректный api_url в настройках")
		return smmapi.Account{}, common.ErrAPINotConfigured
	}
	if err := smmapi.ValidateAPIKey(key); err != nil {
		log.WithError(err).WithField("account", account).Warn("Некорректный api_key в настройках")
		return smmapi.Account{}, common.ErrAPINotConfigured
	}
	return smmapi.Account{URL: url, Key: key}, nil
}

// Package settings управляет конфигурацией автонакрутки.
// models.go описывает структуру настроек и значения по умолчанию.
//
// Настройки живут в settings.json и меняются оператором на лету.
// Неизвестные ключи файла сохраняются как есть: обновление бота с новыми
// полями не затирает чужие/кастомные ключи.
package settings

import "encoding/json"

// Settings — единственная запись конфигурации автонакрутки.
type Settings struct {
	// Доступы к двум независимым SMM-сервисам
	APIURL  string `json:"api_url"`
	APIKey  string `json:"api_key"`
	APIURL2 string `json:"api_url_2"`
	APIKey2 string `json:"api_key_2"`

	// Флаги уведомлений
	AlertNewOrder      bool `json:"set_alert_neworder"`
	AlertErrorOrder    bool `json:"set_alert_errororder"`
	AlertSMMBalanceNew bool `json:"set_alert_smmbalance_new"`
	AlertSMMBalance    bool `json:"set_alert_smmbalance"`

	// Поведение
	RefundOnError  bool `json:"set_refund_smm"`
	StartMessage   bool `json:"set_start_mess"`
	AutoRefill     bool `json:"set_auto_refill"`
	AllowTGPrivate bool `json:"set_tg_private"`
	RecreateOrder  bool `json:"set_recreated_order"`

	// Тюнинг
	APITimeout    int `json:"api_timeout"`    // секунды на HTTP-запрос
	CheckInterval int `json:"check_interval"` // секунды между циклами чекера
	MaxRetries    int `json:"max_retries"`    // попыток HTTP-запроса

	// Неизвестные ключи файла, сохраняются при перезаписи
	Extra map[string]json.RawMessage `json:"-"`
}

// Defaults возвращает настройки по умолчанию.
func Defaults() Settings {
	return Settings{
		AlertNewOrder:   true,
		AlertErrorOrder: true,
		AlertSMMBalance: true,
		RefundOnError:   true,
		StartMessage:    true,
		APITimeout:      30,
		CheckInterval:   60,
		MaxRetries:      3,
	}
}

// plain — alias без методов, чтобы не зациклить (Un)MarshalJSON.
type plain Settings

// knownKeys — множество ключей, которые описаны полями структуры.
var knownKeys = func() map[string]struct{} {
	b, err := json.Marshal(plain{})
	if err != nil {
		panic(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	keys := make(map[string]struct{}, len(m))
	for k := range m {
		keys[k] = struct{}{}
	}
	return keys
}()

// UnmarshalJSON читает известные поля и откладывает остальные ключи в Extra.
func (s *Settings) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, (*plain)(s)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range knownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		s.Extra = raw
	} else {
		s.Extra = nil
	}
	return nil
}

// MarshalJSON пишет известные поля плюс сохранённые неизвестные ключи.
// При конфликте имён известное поле имеет приоритет.
func (s Settings) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return b, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, known := m[k]; !known {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

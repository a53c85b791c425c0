// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт хранилище, адаптер площадки,
// клиенты, сервисы и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/bot"
	"autosmm.ru/smm-bot/internal/bot/filters"
	"autosmm.ru/smm-bot/internal/config"
	"autosmm.ru/smm-bot/internal/features/checker"
	"autosmm.ru/smm-bot/internal/features/intake"
	"autosmm.ru/smm-bot/internal/features/notify"
	"autosmm.ru/smm-bot/internal/jobs"
	"autosmm.ru/smm-bot/internal/marketplace"
	"autosmm.ru/smm-bot/internal/marketplace/bridge"
	"autosmm.ru/smm-bot/internal/settings"
	"autosmm.ru/smm-bot/internal/smmapi"
	"autosmm.ru/smm-bot/internal/storage"
)

// Version — версия, отправляемая в стартовом уведомлении.
const Version = "1.0.0"

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Checker   *checker.Service
	Intake    *intake.Service
	Notifier  *notify.Service
	Host      *bridge.Client
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище и настройки ===
	store := storage.New(cfg.StorageDir)
	settingsRepo := settings.NewRepository(store)
	// первый Load создаёт settings.json с дефолтами и доливает новые ключи
	if _, err := settingsRepo.Load(); err != nil {
		return nil, fmt.Errorf("ошибка загрузки настроек: %w", err)
	}
	settingsSvc := settings.NewService(settingsRepo)

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Адаптер площадки ===
	host := bridge.NewClient(cfg.HostURL, cfg.HostToken, cfg.HostSelfID)

	// === 4. Клиент SMM-сервисов ===
	// таймаут и число повторов перечитываются из настроек на каждый вызов
	smmClient := smmapi.NewClient(func() smmapi.Tuning {
		st := settingsSvc.Get()
		return smmapi.Tuning{
			Timeout: time.Duration(st.APITimeout) * time.Second,
			Retries: st.MaxRetries,
		}
	})

	// === 5. Репозитории ===
	payRepo := intake.NewPayOrderRepository(store)
	orderRepo := checker.NewOrderRepository(store)

	// === 6. Сервисы ===
	sender := bot.NewSender(botAPI)
	notifier := notify.NewService(host, smmClient, settingsSvc, sender, cfg.AdminIDs)
	intakeSvc := intake.NewService(host, smmClient, settingsSvc, payRepo, orderRepo, notifier)
	checkerSvc := checker.NewService(host, smmClient, settingsSvc, orderRepo)

	// === 7. Бот и планировщик ===
	operatorFilter := filters.NewOperatorFilter(cfg.AdminIDs)
	b := bot.New(botAPI, cfg, operatorFilter, notifier, orderRepo, payRepo)
	scheduler := jobs.NewScheduler(notifier, cfg.AppTimezone)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Checker:   checkerSvc,
		Intake:    intakeSvc,
		Notifier:  notifier,
		Host:      host,
		BotAPI:    botAPI,
	}, nil
}

var _ marketplace.Host = (*bridge.Client)(nil)
var _ bridge.Handler = (*intake.Service)(nil)

// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневная сводка балансов операторам.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"autosmm.ru/smm-bot/internal/features/notify"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	notifier *notify.Service
}

// NewScheduler создаёт планировщик задач с указанным часовым поясом.
func NewScheduler(notifier *notify.Service, timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).WithField("tz", timezone).Warn("Не удалось загрузить часовой пояс, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		notifier: notifier,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ежедневная сводка балансов в 09:00
	s.cron.AddFunc("0 9 * * *", func() {
		log.Info("[CRON] Ежедневная сводка балансов")
		s.notifier.Balances(ctx)
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

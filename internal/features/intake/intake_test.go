package intake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autosmm.ru/smm-bot/internal/features/checker"
	"autosmm.ru/smm-bot/internal/marketplace"
	"autosmm.ru/smm-bot/internal/settings"
	"autosmm.ru/smm-bot/internal/smmapi"
	"autosmm.ru/smm-bot/internal/storage"
)

// --- фейки коллабораторов ---

type fakeHost struct {
	selfID   int64
	sent     []string
	sentTo   []int64
	refunded []string
	details  map[string]marketplace.OrderDetails
	balance  marketplace.Balance
}

func (h *fakeHost) SendMessage(_ context.Context, chatID int64, text string) error {
	h.sent = append(h.sent, text)
	h.sentTo = append(h.sentTo, chatID)
	return nil
}

func (h *fakeHost) GetOrder(_ context.Context, orderID string) (marketplace.OrderDetails, error) {
	d, ok := h.details[orderID]
	if !ok {
		return marketplace.OrderDetails{}, errors.New("заказ не найден")
	}
	return d, nil
}

func (h *fakeHost) Refund(_ context.Context, orderID string) error {
	h.refunded = append(h.refunded, orderID)
	return nil
}

func (h *fakeHost) Balance(context.Context) (marketplace.Balance, error) { return h.balance, nil }
func (h *fakeHost) SelfID() int64                                        { return h.selfID }

func (h *fakeHost) lastSent() string {
	if len(h.sent) == 0 {
		return ""
	}
	return h.sent[len(h.sent)-1]
}

type fakeSMM struct {
	nextOrderID int64
	createErr   error
	created     []int64 // quantity каждого создания
	statuses    map[int64]smmapi.Status
	refilled    []int64
}

func (s *fakeSMM) CreateOrder(_ context.Context, _ smmapi.Account, _ int64, _ string, quantity int64) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.created = append(s.created, quantity)
	return s.nextOrderID, nil
}

func (s *fakeSMM) OrderStatus(_ context.Context, _ smmapi.Account, orderID int64) (smmapi.Status, error) {
	st, ok := s.statuses[orderID]
	if !ok {
		return smmapi.Status{}, errors.New("нет статуса")
	}
	return st, nil
}

func (s *fakeSMM) Refill(_ context.Context, _ smmapi.Account, orderID int64) error {
	s.refilled = append(s.refilled, orderID)
	return nil
}

type fakeNotifier struct {
	created  int
	failed   int
	balances int
}

func (n *fakeNotifier) OrderCreated(context.Context, PendingLinkOrder, int64) { n.created++ }
func (n *fakeNotifier) OrderFailed(context.Context, PendingLinkOrder, string) { n.failed++ }
func (n *fakeNotifier) Balances(context.Context)                              { n.balances++ }

// --- сборка сервиса на фейках ---

type fixture struct {
	svc      *Service
	host     *fakeHost
	smm      *fakeSMM
	notifier *fakeNotifier
	payRepo  *PayOrderRepository
	orders   *checker.OrderRepository
	settings *settings.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.New(t.TempDir())

	settingsRepo := settings.NewRepository(store)
	settingsSvc := settings.NewService(settingsRepo)
	require.NoError(t, settingsSvc.SetAPIURL(1, "https://smm.example/api/v2"))
	require.NoError(t, settingsSvc.SetAPIKey(1, "abcdef1234"))
	require.NoError(t, settingsSvc.SetAPIURL(2, "https://smm2.example/api/v2"))
	require.NoError(t, settingsSvc.SetAPIKey(2, "fedcba4321"))

	host := &fakeHost{selfID: 777, details: map[string]marketplace.OrderDetails{}}
	smm := &fakeSMM{nextOrderID: 500100, statuses: map[int64]smmapi.Status{}}
	notifier := &fakeNotifier{}
	payRepo := NewPayOrderRepository(store)
	orders := checker.NewOrderRepository(store)

	return &fixture{
		svc:      NewService(host, smm, settingsSvc, payRepo, orders, notifier),
		host:     host,
		smm:      smm,
		notifier: notifier,
		payRepo:  payRepo,
		orders:   orders,
		settings: settingsSvc,
	}
}

func (f *fixture) newOrder(t *testing.T, orderID, desc string, amount int64) {
	t.Helper()
	f.host.details[orderID] = marketplace.OrderDetails{FullDescription: desc, BuyerUsername: "buyer1"}
	f.svc.HandleNewOrder(context.Background(), marketplace.OrderEvent{
		OrderID:  orderID,
		Amount:   amount,
		Price:    3.50,
		Currency: "₽",
		Title:    "Подписчики Telegram",
	})
}

func (f *fixture) message(chatID int64, text string) {
	f.svc.HandleMessage(context.Background(), marketplace.MessageEvent{
		ChatID:   chatID,
		ChatName: "buyer1",
		AuthorID: 1001,
		Text:     text,
	})
}

// --- разбор описания лота ---

func TestParseDescription(t *testing.T) {
	tests := []struct {
		name       string
		desc       string
		account    int
		serviceID  int64
		multiplier int64
		ok         bool
	}{
		{"только ID", "Подписчики\nID: 42", 1, 42, 1, true},
		{"только ID2", "Просмотры ID2: 77", 2, 77, 1, true},
		{"ID приоритетнее ID2", "ID: 1 ID2: 2", 1, 1, 1, true},
		{"множитель", "ID: 42 #Quan: 100", 1, 42, 100, true},
		{"без маркера", "Просто лот без накрутки", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, serviceID, multiplier, ok := parseDescription(tt.desc)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			require.Equal(t, tt.account, account)
			require.Equal(t, tt.serviceID, serviceID)
			require.Equal(t, tt.multiplier, multiplier)
		})
	}
}

func TestHandleNewOrderSavesPayOrder(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "Подписчики ID: 42 #Quan: 1000", 1)

	orders, err := f.payRepo.List()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "ORD-1", orders[0].OrderID)
	require.Equal(t, int64(42), orders[0].ServiceID)
	require.Equal(t, int64(1000), orders[0].Amount, "количество умножается на #Quan")
	require.Equal(t, 1, orders[0].Account)
	require.Equal(t, "buyer1", orders[0].Buyer)
	require.Empty(t, orders[0].Link)
}

func TestHandleNewOrderIgnoresUnmarkedLot(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "Обычный лот без маркеров", 5)

	orders, err := f.payRepo.List()
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestHandleNewOrderRejectsBadParams(t *testing.T) {
	f := newFixture(t)
	// количество за пределом после множителя
	f.newOrder(t, "ORD-1", "ID: 42 #Quan: 10000001", 2)

	orders, err := f.payRepo.List()
	require.NoError(t, err)
	require.Empty(t, orders)
}

// --- полный путь: ссылка → подтверждение → создание ---

func TestFullFlowLinkConfirmCreate(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 500)

	// покупатель присылает ссылку
	f.message(10, "вот ссылка https://t.me/mychannel")
	require.Contains(t, f.host.lastSent(), "проверьте детали")
	require.Contains(t, f.host.lastSent(), "500 шт")
	require.Contains(t, f.host.lastSent(), "t.me/mychannel")

	// подтверждение
	f.message(10, "+")
	require.Contains(t, f.host.lastSent(), "СОЗДАН")
	require.Contains(t, f.host.lastSent(), "500100")
	require.Contains(t, f.host.lastSent(), "#статус 500100")
	require.Equal(t, 1, f.notifier.created)

	// pay-order удалён, активный заказ создан
	pending, err := f.payRepo.List()
	require.NoError(t, err)
	require.Empty(t, pending)

	active, err := f.orders.All()
	require.NoError(t, err)
	require.Len(t, active, 1)
	remote := active["500100"]
	require.Equal(t, "ORD-1", remote.MarketOrderID)
	require.Equal(t, int64(10), remote.ChatID)
	require.Equal(t, smmapi.StatusPending, remote.Status)
	require.Equal(t, 1, remote.Account)
}

func TestSecondAccountUsesInfoCommand(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID2: 77", 100)

	f.message(10, "https://t.me/mychannel")
	f.message(10, "+")

	require.Contains(t, f.host.lastSent(), "#инфо 500100")

	active, err := f.orders.All()
	require.NoError(t, err)
	require.Equal(t, 2, active["500100"].Account)
}

func TestRelinkUpdatesOrder(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.message(10, "https://t.me/first")
	f.message(10, "https://t.me/second")
	require.Contains(t, f.host.lastSent(), "t.me/second")

	f.message(10, "+")
	active, err := f.orders.All()
	require.NoError(t, err)
	require.Equal(t, "https://t.me/second", active["500100"].Link)
}

func TestDeclineRefundsAndRemoves(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.message(10, "https://t.me/mychannel")
	f.message(10, "-")

	require.Contains(t, f.host.lastSent(), "Заказ отменен")
	require.Equal(t, []string{"ORD-1"}, f.host.refunded)

	pending, err := f.payRepo.List()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestGarbageInConfirmationRePrompts(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.message(10, "https://t.me/mychannel")
	f.message(10, "да, всё верно")

	require.Contains(t, f.host.lastSent(), "отправьте +")

	// заказ всё ещё ждёт подтверждения
	f.message(10, "+")
	require.Contains(t, f.host.lastSent(), "СОЗДАН")
}

func TestPrivateTelegramLinkRejected(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.message(10, "https://t.me/+AbCdEf123")
	require.True(t, strings.HasPrefix(f.host.lastSent(), "❌"))
	require.Contains(t, f.host.lastSent(), "закрытые каналы")

	// с включённой настройкой та же ссылка проходит
	require.NoError(t, f.settings.SetFlag("set_tg_private", true))
	f.message(10, "https://t.me/+AbCdEf123")
	require.Contains(t, f.host.lastSent(), "проверьте детали")
}

func TestCreateFailureRefundsWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.smm.createErr = &smmapi.APIError{Message: "not enough funds"}
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.message(10, "https://t.me/mychannel")
	f.message(10, "+")

	require.Contains(t, f.host.sent, "❌ Ошибка при создании заказа: not enough funds")
	require.Equal(t, []string{"ORD-1"}, f.host.refunded, "set_refund_smm включён по умолчанию")
	require.Equal(t, 1, f.notifier.failed)

	pending, err := f.payRepo.List()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestCreateFailureKeepsOrderWhenRefundDisabled(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.SetFlag("set_refund_smm", false))
	f.smm.createErr = errors.New("timeout")
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.message(10, "https://t.me/mychannel")
	f.message(10, "+")

	require.Empty(t, f.host.refunded)
	pending, err := f.payRepo.List()
	require.NoError(t, err)
	require.Len(t, pending, 1, "заказ остаётся для ручного разбора")
}

func TestExternalRefundCancelsOrder(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)
	f.message(10, "https://t.me/mychannel")

	f.svc.HandleMessage(context.Background(), marketplace.MessageEvent{
		ChatID:   10,
		ChatName: "buyer1",
		Text:     "Продавец вернул деньги покупателю по заказу #ORD-1.",
		Type:     marketplace.MessageTypeSystem,
	})

	pending, err := f.payRepo.List()
	require.NoError(t, err)
	require.Empty(t, pending)

	// «+» после возврата ничего не создаёт
	f.message(10, "+")
	active, err := f.orders.All()
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestOwnMessagesIgnored(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	f.svc.HandleMessage(context.Background(), marketplace.MessageEvent{
		ChatID:   10,
		ChatName: "buyer1",
		AuthorID: 777, // собственный аккаунт
		Text:     "https://t.me/mychannel",
	})
	require.Empty(t, f.host.sent)
}

func TestFirstContactBindsChat(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)

	// первое сообщение без ссылки уже привязывает диалог
	f.message(10, "здравствуйте")

	orders, err := f.payRepo.List()
	require.NoError(t, err)
	require.Equal(t, int64(10), orders[0].ChatID)

	// после смены отображаемого имени заказ находится по диалогу
	f.svc.HandleMessage(context.Background(), marketplace.MessageEvent{
		ChatID:   10,
		ChatName: "другое имя",
		AuthorID: 1001,
		Text:     "https://t.me/mychannel",
	})
	require.Contains(t, f.host.lastSent(), "проверьте детали")
}

// --- восстановление после рестарта ---

func TestPendingConfirmationSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, "ORD-1", "ID: 42", 100)
	f.message(10, "https://t.me/mychannel")

	// новый сервис поверх того же хранилища — реестр в памяти пуст
	restarted := NewService(f.host, f.smm, f.settings, f.payRepo, f.orders, f.notifier)
	restarted.HandleMessage(context.Background(), marketplace.MessageEvent{
		ChatID: 10, ChatName: "buyer1", AuthorID: 1001, Text: "+",
	})

	require.Contains(t, f.host.lastSent(), "СОЗДАН")
}

// --- команды ---

func TestStatusCommand(t *testing.T) {
	f := newFixture(t)
	f.smm.statuses[555] = smmapi.Status{Status: "In progress", StartCount: 120, Remains: 80}

	f.message(10, "#статус 555")
	require.Contains(t, f.host.lastSent(), "In progress")
	require.Contains(t, f.host.lastSent(), "120")
	require.Contains(t, f.host.lastSent(), "80")
}

func TestStatusCommandZeroStartCount(t *testing.T) {
	f := newFixture(t)
	f.smm.statuses[555] = smmapi.Status{Status: "pending", Remains: 100}

	f.message(10, "#статус 555")
	require.Contains(t, f.host.lastSent(), "Было: *")
}

func TestStatusCommandFailure(t *testing.T) {
	f := newFixture(t)

	f.message(10, "#статус 999")
	require.Contains(t, f.host.lastSent(), "Не удалось получить статус")

	f.message(10, "#статус abc")
	require.Contains(t, f.host.lastSent(), "Не удалось получить статус")
}

func TestRefillCommand(t *testing.T) {
	f := newFixture(t)

	f.message(10, "#рефилл 555")
	require.Equal(t, []int64{555}, f.smm.refilled)
	require.Contains(t, f.host.lastSent(), "Запрос на рефилл отправлен")
}

func TestCommandWorksDuringConfirmation(t *testing.T) {
	f := newFixture(t)
	f.smm.statuses[555] = smmapi.Status{Status: "pending", Remains: 1}
	f.newOrder(t, "ORD-1", "ID: 42", 100)
	f.message(10, "https://t.me/mychannel")

	// команда в окне подтверждения не считается ответом «+/-»
	f.message(10, "#статус 555")
	require.Contains(t, f.host.lastSent(), "Статус заказа")

	f.message(10, "+")
	require.Contains(t, f.host.lastSent(), "СОЗДАН")
}

// --- извлечение ссылок ---

func TestExtractLinks(t *testing.T) {
	require.Empty(t, extractLinks("без ссылок"))
	require.Equal(t, []string{"https://t.me/a", "http://example.com/b"},
		extractLinks("первая https://t.me/a и вторая http://example.com/b"))
}

func TestValidateTelegramLink(t *testing.T) {
	require.NoError(t, validateTelegramLink("https://t.me/public", false))
	require.NoError(t, validateTelegramLink("https://vk.com/anything", false))
	require.Error(t, validateTelegramLink("https://t.me/+invite", false))
	require.Error(t, validateTelegramLink("https://t.me/c/12345/1", false))
	require.NoError(t, validateTelegramLink("https://t.me/+invite", true))
}

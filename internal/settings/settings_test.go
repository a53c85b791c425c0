package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"autosmm.ru/smm-bot/internal/common"
	"autosmm.ru/smm-bot/internal/storage"
)

func newRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	dir := t.TempDir()
	return NewRepository(storage.New(dir)), dir
}

func TestLoadCreatesDefaults(t *testing.T) {
	repo, dir := newRepo(t)

	s, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, Defaults(), s)

	// файл создан и пригоден для чтения
	b, err := os.ReadFile(filepath.Join(dir, storage.SettingsFile))
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Contains(t, raw, "api_url")
	require.Contains(t, raw, "check_interval")
}

func TestLoadPreservesUnknownKeys(t *testing.T) {
	repo, dir := newRepo(t)

	file := `{
    "api_url": "https://smm.example/api/v2",
    "api_key": "abcdef1234",
    "set_alert_neworder": false,
    "custom_plugin_key": {"nested": true}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.SettingsFile), []byte(file), 0o644))

	s, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, "https://smm.example/api/v2", s.APIURL)
	require.False(t, s.AlertNewOrder)
	require.Contains(t, s.Extra, "custom_plugin_key")

	// forward-merge дописал отсутствующие известные ключи и сохранил чужие
	b, err := os.ReadFile(filepath.Join(dir, storage.SettingsFile))
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Contains(t, raw, "custom_plugin_key")
	require.Contains(t, raw, "max_retries")
	require.JSONEq(t, `{"nested": true}`, string(raw["custom_plugin_key"]))
}

func TestLoadKeepsExplicitFalse(t *testing.T) {
	repo, dir := newRepo(t)

	file := `{"set_refund_smm": false}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.SettingsFile), []byte(file), 0o644))

	s, err := repo.Load()
	require.NoError(t, err)
	require.False(t, s.RefundOnError, "явный false не должен перетираться дефолтом")
	require.True(t, s.AlertNewOrder, "отсутствующий ключ получает дефолт")
}

func TestServiceAccount(t *testing.T) {
	repo, _ := newRepo(t)
	svc := NewService(repo)

	_, err := svc.Account(1)
	require.ErrorIs(t, err, common.ErrAPINotConfigured)

	require.NoError(t, svc.SetAPIURL(1, "https://smm.example/api/v2"))
	require.NoError(t, svc.SetAPIKey(1, "abcdef1234"))

	acc, err := svc.Account(1)
	require.NoError(t, err)
	require.Equal(t, "https://smm.example/api/v2", acc.URL)
	require.Equal(t, "abcdef1234", acc.Key)

	// второй аккаунт независим от первого
	_, err = svc.Account(2)
	require.ErrorIs(t, err, common.ErrAPINotConfigured)
}

func TestServiceRejectsInvalidValues(t *testing.T) {
	repo, _ := newRepo(t)
	svc := NewService(repo)

	require.ErrorIs(t, svc.SetAPIURL(1, "ftp://smm.example"), common.ErrInvalidURL)
	require.ErrorIs(t, svc.SetAPIKey(1, "short"), common.ErrInvalidAPIKey)
	require.ErrorIs(t, svc.SetAPIKey(1, "ключ-не-ascii-1234"), common.ErrInvalidAPIKey)
	require.Error(t, svc.SetFlag("no_such_flag", true))
}

func TestServiceSetFlagAndInvalidate(t *testing.T) {
	repo, _ := newRepo(t)
	svc := NewService(repo)

	require.True(t, svc.Get().RefundOnError)
	require.NoError(t, svc.SetFlag("set_refund_smm", false))
	// mutate сбрасывает кэш, свежий Get видит изменение сразу
	require.False(t, svc.Get().RefundOnError)
}

func TestServiceSetTuning(t *testing.T) {
	repo, _ := newRepo(t)
	svc := NewService(repo)

	require.NoError(t, svc.SetTuning(45, 0, 5))
	st := svc.Get()
	require.Equal(t, 45, st.APITimeout)
	require.Equal(t, 60, st.CheckInterval, "ноль означает «не менять»")
	require.Equal(t, 5, st.MaxRetries)

	require.Error(t, svc.SetTuning(-1, 0, 0))
}

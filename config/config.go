package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Bank struct {
		NumTellers      int // Емкость пула кассиров
		NumAdvisors     int // Емкость пула консультантов
		MaxOpsPerTurn   int // Лимит операций на один турн
		DispatchBackoff int // Пауза цикла диспетчера в миллисекундах
		CardHMACKey     string
	}
	SMTP struct {
		Enabled  bool
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Log struct {
		Dir   string
		Quiet bool // Подавить вывод событий в консоль
	}
}

// NewConfig создает конфигурацию из переменных окружения
// со значениями по умолчанию
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Настройки банка
	v.SetDefault("NUM_TELLERS", 3)
	v.SetDefault("NUM_ADVISORS", 2)
	v.SetDefault("MAX_OPS_PER_TURN", 3)
	v.SetDefault("DISPATCH_BACKOFF_MS", 10)
	v.SetDefault("CARD_HMAC_KEY", "bank-card-hmac-key")

	// Настройки SMTP
	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@bank.local")

	// Настройки логирования
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_QUIET", false)

	cfg := &Config{}
	cfg.Bank.NumTellers = v.GetInt("NUM_TELLERS")
	cfg.Bank.NumAdvisors = v.GetInt("NUM_ADVISORS")
	cfg.Bank.MaxOpsPerTurn = v.GetInt("MAX_OPS_PER_TURN")
	cfg.Bank.DispatchBackoff = v.GetInt("DISPATCH_BACKOFF_MS")
	cfg.Bank.CardHMACKey = v.GetString("CARD_HMAC_KEY")

	cfg.SMTP.Enabled = v.GetBool("SMTP_ENABLED")
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")

	cfg.Log.Dir = v.GetString("LOG_DIR")
	cfg.Log.Quiet = v.GetBool("LOG_QUIET")

	// Проверяем значения
	if cfg.Bank.NumTellers < 1 {
		return nil, fmt.Errorf("неверное число кассиров: %d", cfg.Bank.NumTellers)
	}
	if cfg.Bank.NumAdvisors < 1 {
		return nil, fmt.Errorf("неверное число консультантов: %d", cfg.Bank.NumAdvisors)
	}
	if cfg.Bank.MaxOpsPerTurn < 1 {
		return nil, fmt.Errorf("неверный лимит операций на турн: %d", cfg.Bank.MaxOpsPerTurn)
	}

	return cfg, nil
}

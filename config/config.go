package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"multicap-dx/internal/domain/entity"
)

type Config struct {
	HTTPAddr string

	SerialPort        string
	SerialDriver      string
	SerialBaud        int
	SerialReadTimeout time.Duration
	SerialTotalWait   time.Duration
	SyntheticFallback bool

	OutputDir string
	Cutoffs   entity.Cutoffs

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	TelegramToken  string
	TelegramChatID int64
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnv разбирает конфигурацию через getenv; пустые значения берутся по умолчанию.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	defaults := entity.DefaultCutoffs()

	cfg := &Config{
		HTTPAddr:          p.str("HTTP_ADDR", "127.0.0.1:5050"),
		SerialPort:        p.str("SERIAL_PORT", "COM7"),
		SerialDriver:      p.str("SERIAL_DRIVER", "bugst"),
		SerialBaud:        p.int("SERIAL_BAUD", 115200),
		SerialReadTimeout: p.duration("SERIAL_READ_TIMEOUT", 3*time.Second),
		SerialTotalWait:   p.duration("SERIAL_TOTAL_WAIT", 6*time.Second),
		SyntheticFallback: p.bool("SYNTHETIC_FALLBACK", true),
		OutputDir:         p.str("OUTPUT_DIR", "roi_extract"),
		Cutoffs: entity.Cutoffs{
			HIV: p.float("CUTOFF_HIV", defaults.HIV),
			HBV: p.float("CUTOFF_HBV", defaults.HBV),
			HCV: p.float("CUTOFF_HCV", defaults.HCV),
		},
		MQTTBroker:      p.str("MQTT_BROKER", ""),
		MQTTClientID:    p.str("MQTT_CLIENT_ID", "multicapdx"),
		MQTTTopicPrefix: p.str("MQTT_TOPIC_PREFIX", "multicapdx"),
		TelegramToken:   p.str("TELEGRAM_TOKEN", ""),
		TelegramChatID:  int64(p.int("TELEGRAM_CHAT_ID", 0)),
	}
	if p.err != nil {
		return nil, p.err
	}
	if cfg.SerialBaud <= 0 {
		return nil, fmt.Errorf("SERIAL_BAUD must be positive, got %d", cfg.SerialBaud)
	}
	return cfg, nil
}

// parser запоминает первую ошибку разбора
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

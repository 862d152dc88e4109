package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName             string        `mapstructure:"APP_NAME"`
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"APP_ENV"`
	Debug               bool          `mapstructure:"DEBUG"`
	BackendURL          string        `mapstructure:"BACKEND_URL"`
	SessionToken        string        `mapstructure:"SESSION_TOKEN"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	SearchDebounce      time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
	SearchPageSize      int           `mapstructure:"SEARCH_PAGE_SIZE"`
	CartRefreshSchedule string        `mapstructure:"CART_REFRESH_SCHEDULE"`
	CacheTTL            time.Duration `mapstructure:"CACHE_TTL"`
	PaymentGatewayURL   string        `mapstructure:"PAYMENT_GATEWAY_URL"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPass           string        `mapstructure:"REDIS_PASS"`
	RedisDB             int           `mapstructure:"REDIS_DB"`
	RedisPrefix         string        `mapstructure:"REDIS_PREFIX"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"APP_NAME":              "storefront.GO",
		"PORT":                  "8080",
		"APP_ENV":               "dev",
		"DEBUG":                 false,
		"BACKEND_URL":           "http://localhost:8080/api",
		"REQUEST_TIMEOUT":       "10s",
		"SEARCH_DEBOUNCE":       "500ms",
		"SEARCH_PAGE_SIZE":      12,
		"CART_REFRESH_SCHEDULE": "@every 30s",
		"CACHE_TTL":             "5m",
		"PAYMENT_GATEWAY_URL":   "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5",
		"REDIS_ADDR":            "",
		"REDIS_PASS":            "",
		"REDIS_DB":              0,
		"REDIS_PREFIX":          "storefront:",
	}
}

// Decode builds a Config from defaults overlaid with env. Values are weakly
// typed so "true", "12" and "750ms" decode into their field types.
func Decode(env map[string]string) (*Config, error) {
	raw := defaults()
	for k, v := range env {
		if v != "" {
			raw[k] = v
		}
	}
	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envSnapshot() map[string]string {
	out := make(map[string]string)
	for k := range defaults() {
		out[k] = os.Getenv(k)
	}
	out["SESSION_TOKEN"] = os.Getenv("SESSION_TOKEN")
	return out
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() {
	once.Do(func() {
		cfg, err := Decode(envSnapshot())
		if err != nil {
			log.Printf("[CONFIG] action=load msg=invalid environment, using defaults: %v", err)
			cfg, _ = Decode(nil)
		}
		AppConfig = cfg
	})
}

// App returns AppConfig, loading it on first use.
func App() *Config {
	LoadAppConfig()
	return AppConfig
}

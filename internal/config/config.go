package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the dispatch process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// driver directory bootstrap
	DriverFile  string
	DriverCount int
	CenterLat   float64
	CenterLon   float64
	Spread      float64

	// bucketization
	SignatureCount  int
	BucketSecret    string
	FreshnessWindow time.Duration

	// matching
	CoordinateMode string // exact | cell | omitted
	MatchAllStatus bool   // admit matched/busy drivers into scans

	// optional collaborators
	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string
	KafkaBrokers  []string
	KafkaTopic    string
	PGDSN         string
	WebhookURL    string
	WebhookKey    string
	OSRMEndpoint  string

	DefaultSpeedMps float64
	FareHoldCents   int64
	FareCurrency    string

	LogLevel string
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		DriverFile:      "data/drivers.json",
		DriverCount:     20,
		CenterLat:       40.0,
		CenterLon:       116.33,
		Spread:          0.01,
		SignatureCount:  3,
		BucketSecret:    "demo_secret",
		FreshnessWindow: time.Millisecond,
		CoordinateMode:  "cell",
		RedisGeoKey:     "drivers_geo",
		KafkaTopic:      "order-events",
		DefaultSpeedMps: 10,
		FareCurrency:    "usd",
		LogLevel:        "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setStringFromEnv(&cfg.DriverFile, "DRIVER_FILE")
	setIntFromEnv(&cfg.DriverCount, "DRIVER_COUNT", &errs)
	setFloatFromEnv(&cfg.CenterLat, "CENTER_LAT", &errs)
	setFloatFromEnv(&cfg.CenterLon, "CENTER_LON", &errs)
	setFloatFromEnv(&cfg.Spread, "DRIVER_SPREAD_DEG", &errs)

	setIntFromEnv(&cfg.SignatureCount, "SIGNATURE_COUNT", &errs)
	setStringFromEnv(&cfg.BucketSecret, "BUCKET_SECRET")
	setDurationFromEnv(&cfg.FreshnessWindow, "FRESHNESS_WINDOW", &errs)

	if v := os.Getenv("COORDINATE_MODE"); v != "" {
		cfg.CoordinateMode = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.MatchAllStatus = strings.EqualFold(os.Getenv("MATCH_ALL_STATUS"), "true")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.WebhookURL = strings.TrimSpace(os.Getenv("WEBHOOK_URL"))
	cfg.WebhookKey = os.Getenv("WEBHOOK_KEY")
	cfg.OSRMEndpoint = strings.TrimSpace(os.Getenv("OSRM_ENDPOINT"))

	setFloatFromEnv(&cfg.DefaultSpeedMps, "DEFAULT_SPEED_MPS", &errs)
	setInt64FromEnv(&cfg.FareHoldCents, "FARE_HOLD_CENTS", &errs)
	setStringFromEnv(&cfg.FareCurrency, "FARE_CURRENCY")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.SignatureCount <= 0 {
		errs = append(errs, fmt.Errorf("SIGNATURE_COUNT must be > 0"))
	}
	if cfg.DriverCount <= 0 {
		errs = append(errs, fmt.Errorf("DRIVER_COUNT must be > 0"))
	}
	switch cfg.CoordinateMode {
	case "exact", "cell", "omitted":
	default:
		errs = append(errs, fmt.Errorf("COORDINATE_MODE must be exact, cell or omitted"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setInt64FromEnv(target *int64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

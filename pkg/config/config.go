package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Intake   IntakeConfig
	MT       MTConfig
	Payments PaymentsConfig
	Pricing  PricingConfig
	Feed     FeedConfig
	Admin    AdminConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	BodyLimitMB    int
	AllowedOrigins string
	RateLimit      int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Migrate  bool
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	URLExpiry   time.Duration
	MaxUploadMB int
}

type IntakeConfig struct {
	// OCRLanguages are Tesseract language packs, e.g. eng+por.
	OCRLanguages []string
}

// MTConfig selects and configures the machine translation backend.
type MTConfig struct {
	Provider string // openai | gigachat
	Timeout  time.Duration

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	GigaChatKey                string
	GigaChatScope              string
	GigaChatInsecureSkipVerify bool
}

type PaymentsConfig struct {
	Provider   string // stripe | midtrans
	Currency   string
	SuccessURL string
	CancelURL  string

	StripeSecretKey     string
	StripeWebhookSecret string

	MidtransServerKey  string
	MidtransProduction bool
}

type PricingConfig struct {
	PricePerWord decimal.Decimal
	PlansFile    string
}

type FeedConfig struct {
	PollInterval time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for containers
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	bodyLimit, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "25"))
	rateLimit, _ := strconv.Atoi(getEnv("SERVER_RATE_LIMIT", "120"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	urlExpiry, _ := strconv.Atoi(getEnv("STORAGE_URL_EXPIRY_MINUTES", "60"))
	maxUpload, _ := strconv.Atoi(getEnv("STORAGE_MAX_UPLOAD_MB", "20"))
	mtTimeout, _ := strconv.Atoi(getEnv("MT_TIMEOUT_SECONDS", "60"))
	pollInterval, _ := strconv.Atoi(getEnv("FEED_POLL_INTERVAL_SECONDS", "30"))

	pricePerWord, err := decimal.NewFromString(getEnv("PRICE_PER_WORD", "0.08"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    time.Duration(readTimeout) * time.Second,
			BodyLimitMB:    bodyLimit,
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			RateLimit:      rateLimit,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "globaltext"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Migrate:  getBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Storage: StorageConfig{
			Endpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:   getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:   getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:      getEnv("MINIO_BUCKET", "documents"),
			UseSSL:      getBool("MINIO_USE_SSL", false),
			URLExpiry:   time.Duration(urlExpiry) * time.Minute,
			MaxUploadMB: maxUpload,
		},
		Intake: IntakeConfig{
			OCRLanguages: splitList(getEnv("OCR_LANGUAGES", "eng+por"), "+"),
		},
		MT: MTConfig{
			Provider:                   strings.ToLower(getEnv("MT_PROVIDER", "openai")),
			Timeout:                    time.Duration(mtTimeout) * time.Second,
			OpenAIKey:                  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:              getEnv("OPENAI_BASE_URL", ""),
			GigaChatKey:                getEnv("GIGACHAT_API_KEY", ""),
			GigaChatScope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			GigaChatInsecureSkipVerify: getBool("GIGACHAT_INSECURE_SKIP_VERIFY", true),
		},
		Payments: PaymentsConfig{
			Provider:            strings.ToLower(getEnv("PAYMENT_PROVIDER", "stripe")),
			Currency:            strings.ToLower(getEnv("PAYMENT_CURRENCY", "brl")),
			SuccessURL:          getEnv("PAYMENT_SUCCESS_URL", "http://localhost:5173/payment/success"),
			CancelURL:           getEnv("PAYMENT_CANCEL_URL", "http://localhost:5173/payment/cancel"),
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			MidtransServerKey:   getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransProduction:  getBool("MIDTRANS_PRODUCTION", false),
		},
		Pricing: PricingConfig{
			PricePerWord: pricePerWord,
			PlansFile:    getEnv("PLANS_FILE", ""),
		},
		Feed: FeedConfig{
			PollInterval: time.Duration(pollInterval) * time.Second,
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DSN renders the libpq connection string used by pgx.
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.DBName + " sslmode=" + c.SSLMode
}

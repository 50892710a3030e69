package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"recomendaleads/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type OAuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// WhatsAppConfig points at the external automation provider that owns
// instance lifecycle, QR issuance and message transport.
type WhatsAppConfig struct {
	BaseURL      string `json:"base_url"`
	APIKey       string `json:"-"`
	PollInterval time.Duration `json:"poll_interval"`
}

type Config struct {
	Environment     string         `json:"environment"`
	ServerPort      string         `json:"server_port"`
	EncryptionKey   string         `json:"-"`
	Google          OAuthConfig    `json:"google"`
	DBHost          string         `json:"db_host"`
	DBPort          string         `json:"db_port"`
	DBUser          string         `json:"db_user"`
	DBPassword      string         `json:"-"`
	DBName          string         `json:"db_name"`
	DBSSLMode       string         `json:"db_ssl_mode"`
	DBMaxIdleConns  int            `json:"db_max_idle_conns"`
	DBMaxOpenConns  int            `json:"db_max_open_conns"`
	Redis           RedisConfig    `json:"redis"`
	WhatsApp        WhatsAppConfig `json:"whatsapp"`
	StripeSecretKey string         `json:"-"`
	SentryDSN       string         `json:"-"`
	SMTPHost        string         `json:"smtp_host"`
	SMTPPort        int            `json:"smtp_port"`
	SMTPUsername    string         `json:"smtp_username"`
	SMTPPassword    string         `json:"-"`
	FromEmail       string         `json:"from_email"`
	RateLimitConnect int           `json:"rate_limit_connect"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),
		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "recomendaleads"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ADDRESS", "") != "",
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:      getEnv("WHATSAPP_API_URL", ""),
			APIKey:       getEnv("WHATSAPP_API_KEY", ""),
			PollInterval: time.Duration(getEnvAsInt("WHATSAPP_POLL_SECONDS", 10)) * time.Second,
		},
		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		FromEmail:        getEnv("FROM_EMAIL", "no-reply@recomendaleads.com"),
		RateLimitConnect: getEnvAsInt("RATE_LIMIT_CONNECT", 5),
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if AppConfig.WhatsApp.BaseURL == "" {
		return fmt.Errorf("WHATSAPP_API_URL is required for instance management")
	}
	if AppConfig.Environment == "production" && AppConfig.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("WhatsApp provider: %s (poll every %s)",
		AppConfig.WhatsApp.BaseURL,
		AppConfig.WhatsApp.PollInterval)
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Agent{},
		&models.GamificationRule{},
		&models.FollowUpMessage{},
		&models.Client{},
		&models.ReferredClient{},
		&models.Recommendation{},
		&models.TimelineEvent{},
		&models.GamificationPayout{},
		&models.FollowUpDelivery{},
		&models.FollowUpCampaign{},
		&models.WhatsAppInstance{},
		&models.Settings{},
		&models.CheckoutOrder{},
	)
}

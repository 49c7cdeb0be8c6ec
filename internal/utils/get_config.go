package utils

import (
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config mirrors config.yaml. Every yaml key is also the name of the environment
// variable that overrides it.
type Config struct {
	// Server
	AppName string `yaml:"APP_NAME"`
	AppEnv  string `yaml:"APP_ENV"`
	Host    string `yaml:"HOST"`
	Port    string `yaml:"PORT"`

	// Logging
	LogLevel string `yaml:"LOG_LEVEL"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`
	DBTimeZone string `yaml:"DB_TIMEZONE"`

	DBMaxOpenConns string `yaml:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns string `yaml:"DB_MAX_IDLE_CONNS"`

	// JWT
	JWTSecret    string `yaml:"JWT_SECRET"`
	AuthRequired string `yaml:"AUTH_REQUIRED"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`
	FulfillmentEmail string `yaml:"FULFILLMENT_EMAIL"`

	// AWS S3 configuration
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`
	AWSS3Endpoint string `yaml:"AWS_S3_ENDPOINT"`

	// Gemini and Vision API configuration
	GeminiAPIKey     string `yaml:"GEMINI_API_KEY"`
	GeminiModel      string `yaml:"GEMINI_MODEL"`
	GenAITemperature string `yaml:"GENAI_TEMPERATURE"`
	VisionAPIKey     string `yaml:"VISION_API_KEY"`

	// Redis / events
	RedisAddr            string `yaml:"REDIS_ADDR"`
	RedisPassword        string `yaml:"REDIS_PASSWORD"`
	RedisDB              string `yaml:"REDIS_DB"`
	ReceiptEventsChannel string `yaml:"RECEIPT_EVENTS_CHANNEL"`

	// Timeouts and limits
	ExternalCallTimeout    string `yaml:"EXTERNAL_CALL_TIMEOUT"`
	DashboardBranchTimeout string `yaml:"DASHBOARD_BRANCH_TIMEOUT"`
	MaxUploadSizeMB        string `yaml:"MAX_UPLOAD_SIZE_MB"`
	MaxDailyReceipts       string `yaml:"MAX_DAILY_RECEIPTS"`

	// Points rules
	PointsPerReceipt        string `yaml:"POINTS_PER_RECEIPT"`
	BonusPointsMultiplier   string `yaml:"BONUS_POINTS_MULTIPLIER"`
	LargePurchaseThreshold  string `yaml:"LARGE_PURCHASE_THRESHOLD"`
	MediumPurchaseThreshold string `yaml:"MEDIUM_PURCHASE_THRESHOLD"`
	LargePurchaseBonus      string `yaml:"LARGE_PURCHASE_BONUS"`
	MediumPurchaseBonus     string `yaml:"MEDIUM_PURCHASE_BONUS"`
	GroceryBonusPoints      string `yaml:"GROCERY_BONUS_POINTS"`
	GroceryKeywords         string `yaml:"GROCERY_KEYWORDS"`
	StreakBonusEnabled      string `yaml:"STREAK_BONUS_ENABLED"`
	StreakBonusChance       string `yaml:"STREAK_BONUS_CHANCE"`
	MinStreakBonus          string `yaml:"MIN_STREAK_BONUS"`
	MaxStreakBonus          string `yaml:"MAX_STREAK_BONUS"`
	FallbackPoints          string `yaml:"FALLBACK_POINTS"`
	RandomSeed              string `yaml:"RANDOM_SEED"`

	// Feature flags
	AnalyticsEnabled    string `yaml:"ANALYTICS_ENABLED"`
	GamificationEnabled string `yaml:"GAMIFICATION_ENABLED"`
	WalletEnabled       string `yaml:"WALLET_ENABLED"`
	MockExternalAPIs    string `yaml:"MOCK_EXTERNAL_APIS"`
}

var (
	config     Config
	configKeys map[string]string
	configOnce sync.Once
	configMu   sync.RWMutex
)

// LoadConfig reads .env and config.yaml once. CONFIG_PATH overrides the yaml location.
func LoadConfig() {
	configOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Error reading .env file: %s\n", err)
		}

		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}

		var loaded Config
		file, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error reading YAML file: %s\n", err)
		} else if err := yaml.Unmarshal(file, &loaded); err != nil {
			log.Printf("Error parsing YAML file: %s\n", err)
		}

		SetConfig(loaded)
	})
}

// SetConfig replaces the active configuration, applying environment overrides.
func SetConfig(c Config) {
	keys := make(map[string]string)
	v := reflect.ValueOf(&c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("yaml")
		if key == "" {
			continue
		}
		if env, ok := os.LookupEnv(key); ok {
			v.Field(i).SetString(env)
		}
		keys[key] = v.Field(i).String()
	}

	configMu.Lock()
	config = c
	configKeys = keys
	configMu.Unlock()
}

func GetConfig(key string) string {
	configMu.RLock()
	defer configMu.RUnlock()
	if configKeys == nil {
		return os.Getenv(key)
	}
	return configKeys[key]
}

func GetConfigInt(key string, def int) int {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid integer for %s: %q\n", key, raw)
		return def
	}
	return n
}

func GetConfigFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid number for %s: %q\n", key, raw)
		return def
	}
	return f
}

func GetConfigBool(key string, def bool) bool {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid boolean for %s: %q\n", key, raw)
		return def
	}
	return b
}

// GetConfigDuration accepts Go durations ("15s") or a bare number of seconds.
func GetConfigDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("invalid duration for %s: %q\n", key, raw)
	return def
}

func GetConfigList(key string, def []string) []string {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

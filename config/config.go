package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Texts map[string]string

type Config struct {
	Node     NodeConfig     `mapstructure:"node"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Loyalty  LoyaltyConfig  `mapstructure:"loyalty"`
}

type NodeConfig struct {
	Mode string `mapstructure:"mode"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	RatePerMinute  int      `mapstructure:"rate_per_minute"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type CacheConfig struct {
	Host     string        `mapstructure:"host"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type CalendarConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	CalendarID      string `mapstructure:"calendar_id"`
}

type ScheduleConfig struct {
	Timezone    string `mapstructure:"timezone"`
	StepMinutes int    `mapstructure:"step_minutes"`
}

type JobsConfig struct {
	ExpireSpec string `mapstructure:"expire_spec"`
}

type LoyaltyConfig struct {
	PointsPerVisit  int `mapstructure:"points_per_visit"`
	RewardThreshold int `mapstructure:"reward_threshold"`
}

func (c Config) IsProduction() bool {
	return c.Node.Mode == "production"
}

// Location resolves the barber time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, using UTC", c.Schedule.Timezone)
		return time.UTC
	}
	return loc
}

var AppConfig Config

func Init() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding without it.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment variables.")
		} else {
			log.Fatalf("Error reading config file: %v", err)
		}
	} else {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	loadTexts()

	return AppConfig
}

func setDefaults() {
	viper.SetDefault("node.mode", "development")

	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("http.rate_per_minute", 200)
	viper.SetDefault("http.trusted_proxies", []string{})

	viper.SetDefault("auth.jwt_secret", "")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 3600)

	viper.SetDefault("cache.host", "")
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", 10*time.Minute)

	viper.SetDefault("telegram.enabled", false)
	viper.SetDefault("telegram.token", "")

	viper.SetDefault("calendar.enabled", false)
	viper.SetDefault("calendar.credentials_file", "credentials/credentials.json")
	viper.SetDefault("calendar.token_file", "credentials/token.json")
	viper.SetDefault("calendar.calendar_id", "primary")

	viper.SetDefault("schedule.timezone", "Asia/Yekaterinburg")
	viper.SetDefault("schedule.step_minutes", 30)

	viper.SetDefault("jobs.expire_spec", "@every 15m")

	viper.SetDefault("loyalty.points_per_visit", 10)
	viper.SetDefault("loyalty.reward_threshold", 100)
}

// loadTexts reads bot messages from texts.yaml; missing file leaves built-in texts.
func loadTexts() {
	v := viper.New()
	v.SetConfigName("texts")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./texts")
	v.AddConfigPath("../texts")

	Texts = defaultTexts()
	if err := v.ReadInConfig(); err != nil {
		log.Printf("Texts file not loaded, using built-in texts: %v", err)
		return
	}

	var custom map[string]string
	if err := v.Unmarshal(&custom); err != nil {
		log.Printf("Unable to decode texts into map: %v", err)
		return
	}
	for k, t := range custom {
		Texts[k] = t
	}
}

func defaultTexts() map[string]string {
	return map[string]string{
		"welcome_message":    "Добро пожаловать! Используйте /bookings, чтобы посмотреть ваши записи.",
		"hello_user":         "Здравствуйте, %s!",
		"registration_start": "Поделитесь контактом, чтобы связать Telegram с вашим профилем.",
		"sheared_contact":    "Поделиться контактом",
		"contact_linked":     "Готово, %s! Уведомления будут приходить сюда.",
		"contact_unknown":    "Профиль с этим номером не найден. Зарегистрируйтесь на сайте и попробуйте снова.",
		"contact_foreign":    "Отправьте свой контакт кнопкой ниже, а не контакт из адресной книги.",
		"help_message":       "/start - связать аккаунт\n/bookings - ближайшие записи\n/help - помощь",
		"unknown_command":    "Неизвестная команда. Используйте /help.",
		"no_bookings":        "У вас нет предстоящих записей.",
		"not_linked":         "Сначала выполните /start и поделитесь контактом.",
	}
}

package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	SessionCacheTTL     time.Duration // in-process cache in front of Redis session reads
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // storage sign URLs and public URLs
	SupabaseSecretKey   string // service_role key, not the anon key
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string
	MailFrom            string
	InviteBaseURL       string
	InviteTTL           time.Duration
	MaintenanceEnabled  bool
	AutoMigrate         bool // create/update tables at startup
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SESSION_CACHE_TTL", "30s")
	viper.SetDefault("INVITE_TTL_HOURS", 168)
	viper.SetDefault("MAINTENANCE_ENABLED", true)
	viper.SetDefault("AUTO_MIGRATE", false)

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	cacheTTL := viper.GetDuration("SESSION_CACHE_TTL")
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	inviteTTL := time.Duration(viper.GetInt("INVITE_TTL_HOURS")) * time.Hour
	if inviteTTL <= 0 {
		inviteTTL = 7 * 24 * time.Hour
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		SessionCacheTTL:     cacheTTL,
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		SupabaseURL:         viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   viper.GetString("SUPABASE_SECRET_KEY"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		InviteBaseURL:       inviteBaseURL(viper.GetString("INVITE_BASE_URL")),
		InviteTTL:           inviteTTL,
		MaintenanceEnabled:  viper.GetBool("MAINTENANCE_ENABLED"),
		AutoMigrate:         viper.GetBool("AUTO_MIGRATE"),
	}, nil
}

func inviteBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://app.swifttasks.io/join"
	}
	return strings.TrimRight(s, "/")
}

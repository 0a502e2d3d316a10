package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"social-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	OAuth       OAuth       `json:"oauth"`
	Scheduler   Scheduler   `json:"scheduler"`
	Publishing  Publishing  `json:"publishing"`
}

type App struct {
	Port          int    `json:"port"`
	SecretKey     string `json:"secretKey"`
	EncryptionKey string `json:"encryptionKey"`
	FrontendURL   string `json:"frontendURL"`
	TLSEnabled    bool   `json:"tlsEnabled"`
	TLSCertFile   string `json:"tlsCertFile"`
	TLSKeyFile    string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID       string `json:"projectID"`
	Topic           string `json:"topic"`
	CredentialsFile string `json:"credentialsFile"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	LinkedIn OAuthClient `json:"linkedin"`
	Twitter  OAuthClient `json:"twitter"`
	Facebook OAuthClient `json:"facebook"`
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
	// WebhookSecret signs inbound webhook deliveries (Facebook app secret, X consumer secret).
	WebhookSecret string `json:"webhookSecret"`
	// VerifyToken answers subscription handshakes.
	VerifyToken string `json:"verifyToken"`
}

type Scheduler struct {
	Enabled   bool   `json:"enabled"`
	Spec      string `json:"spec"`
	BatchSize int    `json:"batchSize"`
}

type Publishing struct {
	TestModeToken string `json:"testModeToken"`
}

// DefaultTestModeToken is the stored access token that makes publishing skip the network.
const DefaultTestModeToken = "test-mode-token"

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initOAuth(&C)
	initScheduler(&C)
	// Prefer https redirect URIs locally when TLS enabled
	if C.App.TLSEnabled {
		for _, client := range []*OAuthClient{&C.OAuth.LinkedIn, &C.OAuth.Twitter, &C.OAuth.Facebook} {
			if client.RedirectURI != "" && !hasHTTPS(client.RedirectURI) {
				client.RedirectURI = toHTTPSCallback(client.RedirectURI)
			}
		}
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	C.Database.Mssql.Name = getConfigValue(C.Database.Mssql.Name, "MSSQL_DB_NAME", "")
	C.Database.Mssql.Host = getConfigValue(C.Database.Mssql.Host, "MSSQL_HOST", "localhost")
	C.Database.Mssql.Port = getConfigValue(C.Database.Mssql.Port, "MSSQL_PORT", "1433")
	C.Database.Mssql.User = getConfigValue(C.Database.Mssql.User, "MSSQL_USER", "")
	C.Database.Mssql.Password = getConfigValue(C.Database.Mssql.Password, "MSSQL_PASSWORD", "")

	C.Database.MySql.Name = getConfigValue(C.Database.MySql.Name, "MYSQL_DB_NAME", "")
	C.Database.MySql.Host = getConfigValue(C.Database.MySql.Host, "MYSQL_HOST", "")
	C.Database.MySql.Port = getConfigValue(C.Database.MySql.Port, "MYSQL_PORT", "3306")
	C.Database.MySql.User = getConfigValue(C.Database.MySql.User, "MYSQL_USER", "")
	C.Database.MySql.Password = getConfigValue(C.Database.MySql.Password, "MYSQL_PASSWORD", "")

	C.Database.Mongo.Host = getConfigValue(C.Database.Mongo.Host, "MONGO_HOST", "")
	C.Database.Mongo.Port = getConfigValue(C.Database.Mongo.Port, "MONGO_PORT", "27017")
	C.Database.Mongo.Name = getConfigValue(C.Database.Mongo.Name, "MONGO_DB_NAME", "social_publisher")

	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")

	logger.GetLogger().WithFields(map[string]interface{}{
		"psqlHost":  C.Database.Psql.Host,
		"mysqlHost": C.Database.MySql.Host,
		"mongoHost": C.Database.Mongo.Host,
		"redisHost": C.RedisClient.Host,
	}).Info("Database configuration")
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		C.App.EncryptionKey = v
	}
	// Token encryption falls back to the JWT secret so a single secret is enough for local runs.
	if C.App.EncryptionKey == "" {
		C.App.EncryptionKey = C.App.SecretKey
	}
	C.App.FrontendURL = getConfigValue(C.App.FrontendURL, "FRONTEND_URL", "http://localhost:4200/settings/social")
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		C.App.TLSEnabled = parseBool(v, C.App.TLSEnabled)
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
	if C.App.EncryptionKey == "" {
		logger.GetLogger().Warn("No encryption key configured; social tokens will be stored in plaintext")
	}
	C.Publishing.TestModeToken = getConfigValue(C.Publishing.TestModeToken, "TEST_MODE_TOKEN", DefaultTestModeToken)
}

func initOAuth(C *Config) {
	defaults := map[string]struct {
		client *OAuthClient
		scopes []string
	}{
		"LINKEDIN": {&C.OAuth.LinkedIn, []string{"openid", "profile", "email", "w_member_social"}},
		"TWITTER":  {&C.OAuth.Twitter, []string{"tweet.read", "tweet.write", "users.read", "offline.access", "media.write"}},
		"FACEBOOK": {&C.OAuth.Facebook, []string{"pages_show_list", "pages_read_engagement", "pages_manage_posts", "public_profile"}},
	}
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	for prefix, d := range defaults {
		platform := strings.ToLower(prefix)
		defaultRedirect := fmt.Sprintf("%s://localhost:%d/%s/callback", scheme, C.App.Port, platform)
		d.client.ClientID = getConfigValue(d.client.ClientID, prefix+"_CLIENT_ID", "")
		d.client.ClientSecret = getConfigValue(d.client.ClientSecret, prefix+"_CLIENT_SECRET", "")
		d.client.RedirectURI = getConfigValue(d.client.RedirectURI, prefix+"_REDIRECT_URI", defaultRedirect)
		d.client.WebhookSecret = getConfigValue(d.client.WebhookSecret, prefix+"_WEBHOOK_SECRET", d.client.ClientSecret)
		d.client.VerifyToken = getConfigValue(d.client.VerifyToken, prefix+"_VERIFY_TOKEN", "")
		if len(d.client.Scopes) == 0 {
			d.client.Scopes = d.scopes
		}
	}
}

func initScheduler(C *Config) {
	C.Scheduler.Spec = getConfigValue(C.Scheduler.Spec, "SCHEDULER_SPEC", "@every 1m")
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		C.Scheduler.Enabled = parseBool(v, C.Scheduler.Enabled)
	}
	if C.Scheduler.BatchSize <= 0 {
		C.Scheduler.BatchSize = 50
	}
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func parseBool(v string, fallback bool) bool {
	switch v {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	}
	return fallback
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }
func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + u[len("http://"):]
	}
	return u
}

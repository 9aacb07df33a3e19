package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are optional: when DB_HOST is
// empty the server runs against the in-memory document store, which is only
// suitable for development.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address; empty selects the in-memory store
	DBPort       string // database port number
	DBName       string // database name
	AdminKey     string // shared secret guarding every admin mutation
	AdminEmail   string // recipient of admin notifications
	JWTSecret    string // secret used to sign client session tokens
	AccessTTLMin int    // client session token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
	UPIPayeeVPA  string // payee address embedded in upi:// payment links
	UPIPayeeName string // payee display name embedded in upi:// payment links
	LogLevel     string // debug, info, warn, error
	LogFormat    string // text or json
	RabbitMQURL  string // broker for the notification queue; empty disables it
	SendGridKey  string // SendGrid API key; empty logs emails instead of sending
	MailFrom     string // sender address for outgoing email
	MailFromName string // sender display name for outgoing email
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", "8080"),
		DBUser:       os.Getenv("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       os.Getenv("DB_HOST"),
		DBPort:       envStr("DB_PORT", "3306"),
		DBName:       os.Getenv("DB_NAME"),
		AdminKey:     must("ADMIN_KEY"),  // admin endpoints are unusable without it
		AdminEmail:   envStr("ADMIN_EMAIL", "admin@atom.studio"),
		JWTSecret:    must("JWT_SECRET"), // secret used for signing client tokens
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 120),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		UPIPayeeVPA:  must("UPI_PAYEE_VPA"),
		UPIPayeeName: envStr("UPI_PAYEE_NAME", "Atom Studio"),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		LogFormat:    envStr("LOG_FORMAT", "text"),
		RabbitMQURL:  firstEnv("RABBITMQ_URL", "AMQP_URL"),
		SendGridKey:  os.Getenv("SENDGRID_API_KEY"),
		MailFrom:     envStr("MAIL_FROM", "no-reply@atom.studio"),
		MailFromName: envStr("MAIL_FROM_NAME", "Atom Studio"),
	}
	if cfg.DBHost != "" && (cfg.DBUser == "" || cfg.DBName == "") {
		log.Fatalf("DB_HOST is set but DB_USER or DB_NAME is missing")
	}
	return cfg
}

// UseMySQL reports whether a MySQL document store was configured.
func (c Config) UseMySQL() bool { return strings.TrimSpace(c.DBHost) != "" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	TokenTTLMin    int
	Port           string
	UIBaseURL      string
	SendgridAPIKey string
	MailFromName   string
	MailFromEmail  string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UseSSL       bool
	LogFile        string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	ttl, _ := strconv.Atoi(getenv("TOKEN_TTL_MIN", "60"))
	useSSL, _ := strconv.ParseBool(getenv("S3_USE_SSL", "true"))
	return Config{
		MySQLDSN:       getenv("MYSQL_DSN", "clubwize:clubwize@tcp(127.0.0.1:3306)/clubwize?parseTime=true"),
		RedisURL:       getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:      getenv("JWT_SECRET", "dev-only-secret"),
		TokenTTLMin:    ttl,
		Port:           getenv("PORT", "8080"),
		UIBaseURL:      getenv("UI_BASE_URL", "http://localhost:3000"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFromName:   getenv("MAIL_FROM_NAME", "Clubwize"),
		MailFromEmail:  getenv("MAIL_FROM_EMAIL", "no-reply@clubwize.app"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3Bucket:       getenv("S3_BUCKET", "clubwize-assets"),
		S3UseSSL:       useSSL,
		LogFile:        os.Getenv("LOG_FILE"),
	}
}

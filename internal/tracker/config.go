package tracker

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"projecthub/internal/logging"
)

type Config struct {
	ConfigPath  string
	Verbose     bool
	ApiGinMode  string
	InitSQLPath string
	LogPath     string

	Ip   string
	Port string

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	//kc
	AuthAddress  string
	Issuer       string
	Audience     string
	Realm        string
	ClientID     string
	ClientSecret string

	// database
	DBAddress  string
	DBUser     string
	DBPassword string
	DBName     string

	// mail relay + digest
	MailRelayAddress string
	DigestInterval   time.Duration
}

func loadConfig(path string) Config {
	if err := godotenv.Load(path); err != nil {
		logging.Logger.Printf("Failed to load the config file at %s, using default ones...", path)
	}

	s := strings.Split(path, "/")
	config := Config{
		ConfigPath:  s[len(s)-1],
		Verbose:     getBoolEnv("VERBOSE", "true"),
		ApiGinMode:  getEnv("GIN_MODE", "debug"),
		InitSQLPath: getEnv("INIT_SQL_PATH", "./internal/tracker/db/init.sql"),
		LogPath:     getEnv("LOG_PATH", ""),

		Ip:   getEnv("IP", "localhost"),
		Port: getEnv("PORT", "5080"),

		AllowedOrigins: getEnvFields("ALLOW_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvFields("ALLOW_METHODS", []string{"*"}),
		AllowedHeaders: getEnvFields("ALLOW_HEADERS", []string{"*"}),

		AuthAddress:  getEnv("AUTH_ADDRESS", "localhost:5555"),
		Issuer:       getEnv("KC_ISSUER", "http://localhost:5555"),
		Audience:     getEnv("KC_AUDIENCE", "projecthub-front"),
		Realm:        getEnv("KC_REALM", "projecthub"),
		ClientID:     getEnv("KC_CLIENT", "admin"),
		ClientSecret: getEnv("KC_CLIENT_SECRET", ""),

		DBAddress:  getEnv("DB_ADDRESS", "api-db:5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "projecthub"),

		MailRelayAddress: getEnv("MAIL_RELAY_ADDRESS", ""),
		DigestInterval:   getDurationEnv("DIGEST_INTERVAL", 24*time.Hour),
	}

	logging.Logger.Print(config.toString())

	return config
}

func getEnv(env, fallback string) string {
	if value, exists := os.LookupEnv(env); exists {
		return value
	}

	return fallback
}

func getEnvFields(env string, fallback []string) []string {
	if value, exists := os.LookupEnv(env); exists {
		fields := strings.Split(strings.TrimSpace(value), ",")

		return fields
	}

	return fallback
}

func getBoolEnv(env, fallback string) bool {
	if value, exists := os.LookupEnv(env); exists {
		return strings.ToLower(value) == "true"
	}

	return strings.ToLower(fallback) == "true"
}

func getDurationEnv(env string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(env); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}

	return fallback
}

func getIntEnv(env string, fallback int) int {
	if value, exists := os.LookupEnv(env); exists {
		int_value, err := strconv.Atoi(value)
		if err == nil {
			return int_value
		}
	}

	return fallback
}

func (cfg *Config) toString() string {
	var strBuilder strings.Builder

	reflectedValues := reflect.ValueOf(cfg).Elem()
	reflectedTypes := reflect.TypeOf(cfg).Elem()

	strBuilder.WriteString(fmt.Sprintf("[CFG]CONFIGURATION: %s\n", cfg.ConfigPath))

	for i := range reflectedValues.NumField() {
		fieldName := reflectedTypes.Field(i).Name
		fieldValue := reflectedValues.Field(i).Interface()

		if fieldName == "DBPassword" || fieldName == "ClientSecret" {
			fieldValue = "****"
		}

		strBuilder.WriteString("[CFG]")
		if i < 9 {
			strBuilder.WriteString(fmt.Sprintf("%d.  ", i+1))
		} else {
			strBuilder.WriteString(fmt.Sprintf("%d. ", i+1))
		}
		if len(fieldName) <= 6 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t\t\t-> %v\n", fieldName, fieldValue))
		} else if len(fieldName) <= 14 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t\t-> %v\n", fieldName, fieldValue))
		} else {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t-> %v\n", fieldName, fieldValue))
		}
	}

	return strBuilder.String()
}

package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	LedgerGatewayURL    string // wallet/node gateway base URL, e.g. https://gateway.digipay.app
	LedgerGatewayAPIKey string
	ContractAddress     string // deployed share registry contract
	PinataAPIKey        string
	PinataSecretKey     string
	PinataGateway       string // public IPFS gateway for image URLs (default https://ipfs.io/ipfs)
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
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
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		LedgerGatewayURL:    viper.GetString("LEDGER_GATEWAY_URL"),
		LedgerGatewayAPIKey: viper.GetString("LEDGER_GATEWAY_API_KEY"),
		ContractAddress:     viper.GetString("CONTRACT_ADDRESS"),
		PinataAPIKey:        viper.GetString("PINATA_API_KEY"),
		PinataSecretKey:     viper.GetString("PINATA_SECRET_KEY"),
		PinataGateway:       pinataGateway(viper.GetString("PINATA_GATEWAY")),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

func pinataGateway(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), "/")
	if s == "" {
		return "https://ipfs.io/ipfs"
	}
	return s
}

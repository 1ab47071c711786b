package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DB       *DBconfig
	RabbitMq *RabbitMqconfig
	Redis    *Redisconfig
	Routing  *Routingconfig
	Fare     *Fareconfig
	Srv      *Serviceconfig
	App      *Appconfig
	Log      *Loggerconfig
}

type DBconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RabbitMqconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type Redisconfig struct {
	Host string
	Port int
}

type Routingconfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// Fareconfig holds the pricing constants. Surge multiplies the whole
// subtotal: (base + km * per_km) * surge.
type Fareconfig struct {
	BaseFare        float64
	PerKmRate       float64
	SurgeMultiplier float64
}

type Serviceconfig struct {
	Port string
}

type Appconfig struct {
	JwtSecret string
}

type Loggerconfig struct {
	Level string
}

func New() (*Config, error) {
	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			fmt.Printf("invalid %s, using default %v\n", key, def)
			return def
		}
		return val
	}

	getEnvFloat := func(key string, def float64) float64 {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			fmt.Printf("invalid %s, using default %v\n", key, def)
			return def
		}
		return val
	}

	cnf := &Config{
		DB: &DBconfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "ridelink_user"),
			Password: getEnv("DB_PASSWORD", "ridelink_pass"),
			Database: getEnv("DB_NAME", "ridelink_db"),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Redis: &Redisconfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnvInt("REDIS_PORT", 6379),
		},
		Routing: &Routingconfig{
			BaseURL:        getEnv("ROUTING_BASE_URL", "http://localhost:5000"),
			TimeoutSeconds: getEnvInt("ROUTING_TIMEOUT_SECONDS", 10),
		},
		Fare: &Fareconfig{
			BaseFare:        getEnvFloat("FARE_BASE", 2.50),
			PerKmRate:       getEnvFloat("FARE_PER_KM", 1.20),
			SurgeMultiplier: getEnvFloat("FARE_SURGE_MULTIPLIER", 1.0),
		},
		Srv: &Serviceconfig{
			Port: getEnv("RIDE_SERVICE_PORT", "3000"),
		},
		App: &Appconfig{
			JwtSecret: getEnv("JWT_SECRET", "dev-secret"),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	return cnf, nil
}

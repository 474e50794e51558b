package global

import (
	"os"
	"strconv"
	"time"
)

// AppConfig carries everything the process reads from the environment.
// Loaded once at boot; no hot reload.
type AppConfig struct {
	Port int // http listen port

	MongoURL  string
	MongoDB   string
	RedisAddr string // empty => presence cache disabled
	RedisPass string
	RedisDB   int
	NatsURL   string // empty => single-node, no event bridge

	JWTSecret string
	JWTAlg    string
	JWTTTL    time.Duration

	GatewayNodeID string // node id stamped on bridged events
}

var Config AppConfig

func LoadConfig() *AppConfig {
	Config = AppConfig{
		Port:          envInt("PORT", 8001),
		MongoURL:      env("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:       env("MONGO_DB", "enterprise_comms"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
		NatsURL:       env("NATS_URL", ""),
		JWTSecret:     env("JWT_SECRET_KEY", ""),
		JWTAlg:        env("JWT_ALGORITHM", "HS256"),
		JWTTTL:        time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		GatewayNodeID: env("GATEWAY_NODE_ID", "gw-1"),
	}
	return &Config
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

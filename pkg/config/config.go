package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Idempotency   IdempotencyConfig
	POS           POSConfig
	Cron          CronConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMACIA_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMACIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMACIA_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FARMACIA_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FARMACIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FARMACIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FARMACIA_DB_DSN"`
	Driver string `envconfig:"FARMACIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMACIA_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMACIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMACIA_DB_USER"`
	LegacyPassword string `envconfig:"FARMACIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMACIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMACIA_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"FARMACIA_SQLITE_PATH" default:"farmacia.db"`

	MaxOpenConns     int           `envconfig:"FARMACIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns     int           `envconfig:"FARMACIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime  time.Duration `envconfig:"FARMACIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime  time.Duration `envconfig:"FARMACIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	StatementTimeout time.Duration `envconfig:"FARMACIA_DB_STATEMENT_TIMEOUT" default:"15s"`
	SlowQuery        time.Duration `envconfig:"FARMACIA_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMACIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMACIA_REDIS_ADDR"`
	Password     string        `envconfig:"FARMACIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMACIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMACIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMACIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMACIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMACIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMACIA_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"FARMACIA_REDIS_KEY_PREFIX" default:"farmacia"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FARMACIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FARMACIA_JWT_ISSUER" default:"farmacia-backend"`
	ExpirationMinutes      int    `envconfig:"FARMACIA_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"FARMACIA_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FARMACIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FARMACIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FARMACIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FARMACIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FARMACIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FARMACIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"FARMACIA_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FARMACIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// IdempotencyConfig sets how long a completed request can be replayed.
type IdempotencyConfig struct {
	SaleTTL    time.Duration `envconfig:"FARMACIA_IDEMPOTENCY_SALE_TTL" default:"24h"`
	DefaultTTL time.Duration `envconfig:"FARMACIA_IDEMPOTENCY_DEFAULT_TTL" default:"24h"`
}

// POSConfig tunes the point-of-sale workflow.
type POSConfig struct {
	InvoiceMaxAttempts int    `envconfig:"FARMACIA_POS_INVOICE_MAX_ATTEMPTS" default:"3"`
	DefaultTimeZone    string `envconfig:"FARMACIA_POS_DEFAULT_TIME_ZONE" default:"America/El_Salvador"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"FARMACIA_CRON_INTERVAL" default:"24h"`
	LockTTL          time.Duration `envconfig:"FARMACIA_CRON_LOCK_TTL" default:"30m"`
	JobTimeout       time.Duration `envconfig:"FARMACIA_CRON_JOB_TIMEOUT" default:"10m"`
	ExpiryWriteOff   bool          `envconfig:"FARMACIA_CRON_EXPIRY_WRITE_OFF" default:"true"`
	ExpiryBatchLimit int           `envconfig:"FARMACIA_CRON_EXPIRY_BATCH_LIMIT" default:"500"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FARMACIA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FARMACIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FARMACIA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

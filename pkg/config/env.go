package config

const (
	EnvPrefix = "FARMACIA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "FARMACIA_APP_ENV"
	EnvPort                   = "FARMACIA_APP_PORT"
	EnvLogLevel               = "FARMACIA_LOG_LEVEL"
	EnvDBDSN                  = "FARMACIA_DB_DSN"
	EnvDBHost                 = "FARMACIA_DB_HOST"
	EnvDBUser                 = "FARMACIA_DB_USER"
	EnvDBName                 = "FARMACIA_DB_NAME"
	EnvRedisURL               = "FARMACIA_REDIS_URL"
	EnvJWTSecret              = "FARMACIA_JWT_SECRET"
	EnvJWTIssuer              = "FARMACIA_JWT_ISSUER"
	EnvJWTExpMins             = "FARMACIA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FARMACIA_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "FARMACIA_USE_SQLITE"
	EnvPOSInvoiceMaxAttempts  = "FARMACIA_POS_INVOICE_MAX_ATTEMPTS"
	EnvCORSAllowedOrigins     = "FARMACIA_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

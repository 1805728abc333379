package config

const (
	EnvPrefix = "PROCUREMATCH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PROCUREMATCH_APP_ENV"
	EnvPort     = "PROCUREMATCH_APP_PORT"
	EnvDBDSN    = "PROCUREMATCH_DB_DSN"
	EnvDBHost   = "PROCUREMATCH_DB_HOST"
	EnvDBUser   = "PROCUREMATCH_DB_USER"
	EnvDBName   = "PROCUREMATCH_DB_NAME"
	EnvRedisURL = "PROCUREMATCH_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

const (
	EnvPrefix = "NEARMARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NEARMARKET_DB_DSN"
	EnvDBHost = "NEARMARKET_DB_HOST"
	EnvDBUser = "NEARMARKET_DB_USER"
	EnvDBName = "NEARMARKET_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

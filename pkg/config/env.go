package config

const (
	EnvPrefix = "CATALOGSYNC"

	AppEnvDev = "dev"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:catalogsync.db?_foreign_keys=on"

	StoreBackendSQL   = "sql"
	StoreBackendMongo = "mongo"

	DefaultFallbackCategoryPattern = "thuc-uong"

	EnvAppEnv       = "CATALOGSYNC_APP_ENV"
	EnvDBDSN        = "CATALOGSYNC_DB_DSN"
	EnvDBDriver     = "CATALOGSYNC_DB_DRIVER"
	EnvDBHost       = "CATALOGSYNC_DB_HOST"
	EnvDBUser       = "CATALOGSYNC_DB_USER"
	EnvDBName       = "CATALOGSYNC_DB_NAME"
	EnvMongoURI     = "CATALOGSYNC_MONGO_URI"
	EnvStoreBackend = "CATALOGSYNC_STORE_BACKEND"
	EnvDryRun       = "CATALOGSYNC_DRY_RUN"
	EnvPageSize     = "CATALOGSYNC_CRAWLER_PAGE_SIZE"
	EnvFallbackPat  = "CATALOGSYNC_FALLBACK_CATEGORY_PATTERN"
	EnvRedisURL     = "CATALOGSYNC_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

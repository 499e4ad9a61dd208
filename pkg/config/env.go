package config

// EnvPrefix is applied by envconfig to every variable without an explicit tag.
const EnvPrefix = "chow"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "CHOW_APP_ENV"
	EnvPort   = "CHOW_APP_PORT"

	EnvDBDSN  = "CHOW_DB_DSN"
	EnvDBHost = "CHOW_DB_HOST"
	EnvDBUser = "CHOW_DB_USER"
	EnvDBName = "CHOW_DB_NAME"

	EnvRedisURL = "CHOW_REDIS_URL"

	EnvRazorpayKeyID         = "CHOW_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "CHOW_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "CHOW_RAZORPAY_WEBHOOK_SECRET"

	EnvDelhiveryToken         = "CHOW_DELHIVERY_TOKEN"
	EnvDelhiveryWebhookSecret = "CHOW_DELHIVERY_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

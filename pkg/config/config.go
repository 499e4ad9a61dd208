package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	Razorpay  RazorpayConfig
	Delhivery DelhiveryConfig
	Delivery  DeliveryConfig
	Shipments ShipmentsConfig
	Cron      CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHOW_APP_ENV" required:"true"`
	Port         string `envconfig:"CHOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CHOW_DB_DSN"`
	Driver string `envconfig:"CHOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHOW_DB_HOST"`
	LegacyPort     int    `envconfig:"CHOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHOW_DB_USER"`
	LegacyPassword string `envconfig:"CHOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	UseSQLite   bool `envconfig:"CHOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHOW_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHOW_REDIS_ADDR"`
	Password     string        `envconfig:"CHOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"CHOW_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string        `envconfig:"CHOW_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"CHOW_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"CHOW_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout       time.Duration `envconfig:"CHOW_RAZORPAY_TIMEOUT" default:"15s"`
}

type DelhiveryConfig struct {
	BaseURL       string        `envconfig:"CHOW_DELHIVERY_BASE_URL" default:"https://track.delhivery.com"`
	Token         string        `envconfig:"CHOW_DELHIVERY_TOKEN"`
	WebhookSecret string        `envconfig:"CHOW_DELHIVERY_WEBHOOK_SECRET"`
	UseRealAPI    bool          `envconfig:"CHOW_DELHIVERY_USE_REAL_API" default:"false"`
	Timeout       time.Duration `envconfig:"CHOW_DELHIVERY_TIMEOUT" default:"15s"`

	PickupName     string `envconfig:"CHOW_DELHIVERY_PICKUP_NAME" default:"Chow Warehouse"`
	PickupAddress  string `envconfig:"CHOW_DELHIVERY_PICKUP_ADDRESS"`
	PickupCity     string `envconfig:"CHOW_DELHIVERY_PICKUP_CITY" default:"Gorakhpur"`
	PickupState    string `envconfig:"CHOW_DELHIVERY_PICKUP_STATE" default:"Uttar Pradesh"`
	PickupPincode  string `envconfig:"CHOW_DELHIVERY_PICKUP_PINCODE" default:"273002"`
	PickupPhone    string `envconfig:"CHOW_DELHIVERY_PICKUP_PHONE"`
	ReturnPincode  string `envconfig:"CHOW_DELHIVERY_RETURN_PINCODE" default:"273002"`
	SellerGSTIN    string `envconfig:"CHOW_DELHIVERY_SELLER_GSTIN"`
	RegisteredName string `envconfig:"CHOW_DELHIVERY_REGISTERED_NAME" default:"Chow Foods Pvt Ltd"`
}

type DeliveryConfig struct {
	BasePincode       string  `envconfig:"CHOW_DELIVERY_BASE_PINCODE" default:"273001"`
	RTOLossMultiplier float64 `envconfig:"CHOW_DELIVERY_RTO_LOSS_MULTIPLIER" default:"2.0"`

	LocalBaseFeePaise  int64   `envconfig:"CHOW_DELIVERY_LOCAL_BASE_FEE_PAISE" default:"3000"`
	LocalPerKmPaise    int64   `envconfig:"CHOW_DELIVERY_LOCAL_PER_KM_PAISE" default:"500"`
	LocalPerKgPaise    int64   `envconfig:"CHOW_DELIVERY_LOCAL_PER_KG_PAISE" default:"1000"`
	LocalFreeKm        float64 `envconfig:"CHOW_DELIVERY_LOCAL_FREE_KM" default:"2"`
	OSRMBaseURL        string  `envconfig:"CHOW_DELIVERY_OSRM_BASE_URL" default:"https://router.project-osrm.org"`
	NominatimBaseURL   string  `envconfig:"CHOW_DELIVERY_NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	GeocodeUserAgent   string  `envconfig:"CHOW_DELIVERY_GEOCODE_USER_AGENT" default:"chow-backend/1.0"`
	DistanceCacheTTL   int     `envconfig:"CHOW_DELIVERY_DISTANCE_CACHE_TTL_MINUTES" default:"1440"`
	DefaultWeightGrams int     `envconfig:"CHOW_DELIVERY_DEFAULT_WEIGHT_GRAMS" default:"500"`
}

type ShipmentsConfig struct {
	MaxAttempts int `envconfig:"CHOW_SHIPMENTS_MAX_ATTEMPTS" default:"3"`
}

type CronConfig struct {
	ShipmentRetryInterval time.Duration `envconfig:"CHOW_CRON_SHIPMENT_RETRY_INTERVAL" default:"5m"`
	LockTTL               time.Duration `envconfig:"CHOW_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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

package config

import (
	"os"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	DatabaseMongo    = "mongo"
	DatabasePostgres = "postgres"
	DatabaseBolt     = "bolt"
	DatabaseMemory   = "memory"
)

// ErrMissingDatabaseURI is returned when the selected backend has no locator configured.
var ErrMissingDatabaseURI = errors.New("database connection string is not configured")

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig http listener and request handling settings
type WebConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	BodyLimit      string        `yaml:"body_limit"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	JwtSecret      string        `yaml:"jwt_secret"`
}

// DBConfig document database settings
type DBConfig struct {
	Type           string        `yaml:"type"`
	URI            string        `yaml:"uri"`
	Name           string        `yaml:"name"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	HealthInterval time.Duration `yaml:"health_interval"`
	Debug          bool          `yaml:"debug"`
}

// APIConfig resource naming for the REST surface
type APIConfig struct {
	Resource string `yaml:"resource"`
}

// LogConfig logging settings
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system"`
	Web      WebConfig `yaml:"web"`
	Database DBConfig  `yaml:"database"`
	API      APIConfig `yaml:"api"`
	Logger   LogConfig `yaml:"logger"`
}

// Addr returns the listen address for the web server.
func (c *AppConfig) Addr() string {
	return c.Web.Host + ":" + cast.ToString(c.Web.Port)
}

// ResourceName is the plural route segment and list envelope key, e.g. "products".
func (c *AppConfig) ResourceName() string {
	if c.API.Resource != "" {
		return c.API.Resource
	}
	return c.Database.Collection
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "ProductAPI",
		Location: "UTC",
		Workdir:  "/var/productapi",
		Debug:    false,
	},
	Web: WebConfig{
		Host:           "0.0.0.0",
		Port:           3000,
		BodyLimit:      "1M",
		RequestTimeout: 15 * time.Second,
	},
	Database: DBConfig{
		Type:           DatabaseMongo,
		Name:           "shop",
		Collection:     "products",
		ConnectTimeout: 10 * time.Second,
		HealthInterval: 30 * time.Second,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/productapi/productapi.log",
	},
}

// LoadConfig reads the optional YAML file at cfile, then applies environment overrides.
// An empty cfile falls back to PRODUCTAPI_CONFIG; a missing file is not an error.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile == "" {
		cfile = os.Getenv("PRODUCTAPI_CONFIG")
	}
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrapf(err, "reading config file %s", cfile)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrapf(err, "parsing config file %s", cfile)
			}
		}
	}

	setEnvValue("HOST", &cfg.Web.Host)
	setEnvIntValue("PORT", &cfg.Web.Port)
	setEnvValue("BODY_LIMIT", &cfg.Web.BodyLimit)
	setEnvDurationValue("REQUEST_TIMEOUT", &cfg.Web.RequestTimeout)
	setEnvValue("JWT_SECRET", &cfg.Web.JwtSecret)

	setEnvValue("DATABASE_TYPE", &cfg.Database.Type)
	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
	setEnvValue("DB_NAME", &cfg.Database.Name)
	setEnvValue("COLLECTION_NAME", &cfg.Database.Collection)
	setEnvDurationValue("DB_CONNECT_TIMEOUT", &cfg.Database.ConnectTimeout)
	setEnvBoolValue("DB_DEBUG", &cfg.Database.Debug)
	setEnvValue("DATABASE_URI", &cfg.Database.URI)
	if cfg.Database.Type == DatabaseMongo {
		setEnvValue("MONGODB_URI", &cfg.Database.URI)
		setEnvValue("MONGO_URI", &cfg.Database.URI)
	}

	setEnvValue("API_RESOURCE", &cfg.API.Resource)

	setEnvValue("LOG_MODE", &cfg.Logger.Mode)
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logger.FileEnable = true
		cfg.Logger.Filename = v
	}

	return &cfg, cfg.Validate()
}

// Validate checks settings that do not depend on reaching the database.
// A missing database locator is reported by the startup sequence instead.
func (c *AppConfig) Validate() error {
	switch c.Database.Type {
	case DatabaseMongo, DatabasePostgres, DatabaseBolt, DatabaseMemory:
	default:
		return errors.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Web.Port)
	}
	if c.Web.BodyLimit != "" {
		if _, err := bytes.Parse(c.Web.BodyLimit); err != nil {
			return errors.Wrapf(err, "invalid body limit %q", c.Web.BodyLimit)
		}
	}
	if strings.TrimSpace(c.Database.Collection) == "" {
		return errors.New("collection name is required")
	}
	if c.Database.Type == DatabaseMongo && strings.TrimSpace(c.Database.Name) == "" {
		return errors.New("database name is required")
	}
	return nil
}

// RequireLocator reports ErrMissingDatabaseURI when the backend needs a URI, DSN or path
// and none was configured.
func (c *DBConfig) RequireLocator() error {
	if c.Type == DatabaseMemory {
		return nil
	}
	if strings.TrimSpace(c.URI) == "" {
		return ErrMissingDatabaseURI
	}
	return nil
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = cast.ToBool(evalue)
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if p, err := cast.ToIntE(evalue); err == nil {
		*val = p
	}
}

// setEnvDurationValue accepts Go duration strings ("5s") or a bare number of seconds.
func setEnvDurationValue(name string, val *time.Duration) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if d, err := time.ParseDuration(evalue); err == nil {
		*val = d
		return
	}
	if secs, err := cast.ToIntE(evalue); err == nil {
		*val = time.Duration(secs) * time.Second
	}
}

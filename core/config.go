package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	Config struct {
		Env            string
		Debug          bool
		TestMode       bool
		AppName        string
		Build          string
		SecretKey      string
		FromEmail      string
		RollbarToken   string
		SendgridApiKey string
		Server         ServerConfig
		Database       DatabaseConfig
		Client         ClientConfig
	}

	ServerConfig struct {
		Address                   string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // memory | postgres
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	ClientConfig struct {
		APIBaseURL  string
		SessionFile string
		Timeout     time.Duration
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.FromEmail}
}

func (d DatabaseConfig) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

func init() {
	Conf = LoadConfig(os.Getenv("ENV"))
}

// LoadConfig reads the configuration of the given environment (DEV when empty) from
// `config/.env.<env>` (if it exists) and the process environment.
func LoadConfig(env string) *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Coursework")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("fromEmail", "noreply@localhost")
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "coursework")
	v.SetDefault("client.apiBaseURL", "http://localhost:5000/api")
	v.SetDefault("client.sessionFile", filepath.Join(os.TempDir(), "coursework-session.db"))
	v.SetDefault("client.timeout", 10*time.Second)

	env = strings.ToUpper(CleanString(env)) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Env:            env,
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		AppName:        v.GetString("appName"),
		Build:          v.GetString("build"),
		SecretKey:      v.GetString("secretKey"),
		FromEmail:      v.GetString("fromEmail"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Client: ClientConfig{
			APIBaseURL:  v.GetString("client.apiBaseURL"),
			SessionFile: v.GetString("client.sessionFile"),
			Timeout:     v.GetDuration("client.timeout"),
		},
	}
}

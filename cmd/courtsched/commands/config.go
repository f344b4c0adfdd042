package commands

import (
	"fmt"
	"os"

	"courtsched/lib/configutil"
	configlibsql "courtsched/lib/configutil/libsql"
	"courtsched/services/notify"
	"courtsched/services/reservation"
)

type PortalConfig struct {
	BaseUrl  string `json:"base_url"`
	LoginUrl string `json:"login_url"`
}

// OpenConfig is the wall-clock time (KST) the booking window rolls
// over at.
type OpenConfig struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type NotifyConfig struct {
	SlackWebhook string              `json:"slack_webhook"`
	Email        *notify.EmailConfig `json:"email"`
}

type Config struct {
	Portal      PortalConfig            `json:"portal"`
	Credentials reservation.Credentials `json:"credentials"`
	Open        OpenConfig              `json:"open"`
	Strategies  []reservation.Strategy  `json:"strategies"`
	Notify      NotifyConfig            `json:"notify"`
	History     configlibsql.Struct     `json:"history"`
}

// loadConfig reads config.json5 and then lets the environment
// override the secrets, so deployments can keep credentials out of
// the file entirely. A missing file is fine when the environment
// carries everything.
func loadConfig() (Config, error) {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	applyEnv(&config.Credentials.Id, "LOGIN_ID")
	applyEnv(&config.Credentials.Password, "LOGIN_PASSWORD")
	applyEnv(&config.Portal.LoginUrl, "LOGIN_URL")
	applyEnv(&config.Portal.BaseUrl, "BASE_URL")
	applyEnv(&config.Notify.SlackWebhook, "SLACK_URL")

	if config.History.File == "" && config.History.Url == "" {
		config.History.File = "courtsched.db"
	}
	return config, nil
}

func applyEnv(target *string, key string) {
	value := os.Getenv(key)
	if value != "" {
		*target = value
	}
}

func (c Config) validate() error {
	if c.Portal.BaseUrl == "" {
		return fmt.Errorf("no portal base url configured (config portal.base_url or $BASE_URL)")
	}
	if c.Portal.LoginUrl == "" {
		return fmt.Errorf("no login url configured (config portal.login_url or $LOGIN_URL)")
	}
	if c.Credentials.Id == "" || c.Credentials.Password == "" {
		return fmt.Errorf("no portal credentials configured (config credentials or $LOGIN_ID/$LOGIN_PASSWORD)")
	}
	for _, strategy := range c.Strategies {
		if err := strategy.Validate(); err != nil {
			return err
		}
	}
	return nil
}

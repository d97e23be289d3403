package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvVars struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"9090"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DiscordToken   string `envconfig:"DISCORD_TOKEN" required:"true"`
	DiscordGuildID string `envconfig:"DISCORD_GUILD_ID"` // vacío = comandos globales

	WaifuToken   string        `envconfig:"WAIFUIT_TOKEN" required:"true"`
	WaifuBaseURL string        `envconfig:"WAIFUIT_BASE_URL" default:"https://waifu.it/api/v4"`
	WaifuTimeout time.Duration `envconfig:"WAIFUIT_TIMEOUT" default:"60s"`

	// the misspelling matches existing deployments
	SDBaseURL string        `envconfig:"STABLE_DIFUSION_URL" required:"true"`
	SDTimeout time.Duration `envconfig:"STABLE_DIFUSION_TIMEOUT" default:"3m"`

	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
	MediaTimeout   time.Duration `envconfig:"MEDIA_TIMEOUT" default:"30s"`

	DefinitionsDir string `envconfig:"DEFINITIONS_DIR" default:"definitions"`
}

// LoadEnv reads dotenv files (missing ones are ignored) and then the process
// environment. Variables already set in the environment win.
func LoadEnv(dotenvFiles ...string) (*EnvVars, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

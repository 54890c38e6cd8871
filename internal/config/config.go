package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPHost string `yaml:"http-host" env:"HTTP_HOST" env-default:"localhost"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Server   Server `yaml:"server"`
	Game     Game   `yaml:"game"`
	Redis    Redis  `yaml:"redis"`
}

type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"5555"`
	PollInterval time.Duration `yaml:"poll-interval" env:"SERVER_POLL_INTERVAL" env-default:"100ms"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"5s"`
	SendQueue    int           `yaml:"send-queue" env:"SERVER_SEND_QUEUE" env-default:"256"`
	MaxFrameSize int           `yaml:"max-frame-size" env:"SERVER_MAX_FRAME_SIZE" env-default:"65536"`
	ReadBuffer   int           `yaml:"read-buffer" env:"SERVER_READ_BUFFER" env-default:"4096"`
}

type Game struct {
	MinPlayers         int           `yaml:"min-players" env:"GAME_MIN_PLAYERS" env-default:"2"`
	CountdownSeconds   int           `yaml:"countdown-seconds" env:"GAME_COUNTDOWN_SECONDS" env-default:"5"`
	TickInterval       time.Duration `yaml:"tick-interval" env:"GAME_TICK_INTERVAL" env-default:"1s"`
	RoundRestartDelay  time.Duration `yaml:"round-restart-delay" env:"GAME_ROUND_RESTART_DELAY" env-default:"3s"`
	Words              []string      `yaml:"words" env:"GAME_WORDS" env-default:"apple,house,car,dog,cat,book,tree,sun,moon,computer"`
	WordFile           string        `yaml:"word-file" env:"GAME_WORD_FILE"`
	GuessRate          float64       `yaml:"guess-rate" env:"GAME_GUESS_RATE" env-default:"5"`
	GuessBurst         int           `yaml:"guess-burst" env:"GAME_GUESS_BURST" env-default:"10"`
	CloseGuessDistance int           `yaml:"close-guess-distance" env:"GAME_CLOSE_GUESS_DISTANCE" env-default:"0"`
	GuesserPoints      int           `yaml:"guesser-points" env:"GAME_GUESSER_POINTS" env-default:"10"`
	DrawerPoints       int           `yaml:"drawer-points" env:"GAME_DRAWER_POINTS" env-default:"5"`
}

type Redis struct {
	Enabled   bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host      string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port      string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Channel   string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"pictionary:events"`
	QueueSize int    `yaml:"queue-size" env:"REDIS_QUEUE_SIZE" env-default:"128"`
}

// MustLoad - load all configurations in config.yml file, falling back to the environment when it is absent.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return config, nil
}

// GetHTTPAddr - returns the address the HTTP endpoints listen on.
func (that *Config) GetHTTPAddr() string {
	return net.JoinHostPort(that.HTTPHost, that.HTTPPort)
}

func (that *Server) GetAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return net.JoinHostPort(that.Host, that.Port)
}

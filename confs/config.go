package confs

import (
	"errors"
	"os"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/joho/godotenv"
	"github.com/umputun/go-flags"
)

// Options holds every server setting. Each one can come from a flag or the environment.
type Options struct {
	Listen string `long:"listen" env:"LISTEN" default:"0.0.0.0:3536" description:"http listen address"`

	DB struct {
		Driver     string `long:"driver" env:"DRIVER" default:"postgres" choice:"postgres" choice:"sqlite" description:"database driver"`
		URL        string `long:"url" env:"URL" description:"database connection string"`
		Host       string `long:"host" env:"HOST" description:"database host"`
		Port       string `long:"port" env:"PORT" description:"database port"`
		User       string `long:"user" env:"USER" description:"database user"`
		Password   string `long:"password" env:"PASSWORD" description:"database password"`
		Name       string `long:"name" env:"NAME" description:"database name"`
		SQLitePath string `long:"sqlite-path" env:"SQLITE_PATH" default:"farmbot.db" description:"sqlite file"`
	} `group:"db" namespace:"db" env-namespace:"DB"`

	JWTSecret string        `long:"jwt-secret" env:"JWT_SECRET" description:"token signing secret"`
	TokenTTL  time.Duration `long:"token-ttl" env:"TOKEN_TTL" default:"24h" description:"token lifetime"`

	Releases struct {
		URL      string        `long:"url" env:"URL" default:"https://api.github.com/repos/FarmBot/farmbot_os/releases" description:"FarmBot OS releases feed"`
		Interval time.Duration `long:"interval" env:"INTERVAL" default:"1h" description:"releases refresh interval"`
	} `group:"releases" namespace:"releases" env-namespace:"RELEASES"`

	FlushInterval time.Duration `long:"flush-interval" env:"FLUSH_INTERVAL" default:"5m" description:"sensor readings flush interval"`
	Dbg           bool          `long:"dbg" env:"DEBUG" description:"debug mode"`
}

// LoadConfig loads environment variables from a .env file if present,
// then parses flags and env into Options.
func LoadConfig(args []string) (*Options, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] could not load .env: %v", err)
		}
	}

	var opts Options
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return nil, err
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("missing required setting: JWT_SECRET")
	}
	return &opts, nil
}

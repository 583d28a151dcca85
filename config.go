package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	apiURL         string
	bind           string
	brokerURL      string
	port           int
	prefix         string
	profile        bool
	reconnectDelay time.Duration
	requestTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.apiURL == "" {
		return errors.New("--api-url must be provided")
	}
	if !strings.HasPrefix(c.brokerURL, "ws://") && !strings.HasPrefix(c.brokerURL, "wss://") {
		return fmt.Errorf("invalid --broker-url (must be a ws:// or wss:// endpoint): %s", c.brokerURL)
	}
	if c.reconnectDelay <= 0 {
		return fmt.Errorf("invalid --reconnect-delay (must be positive): %s", c.reconnectDelay)
	}
	if c.requestTimeout <= 0 {
		return fmt.Errorf("invalid --request-timeout (must be positive): %s", c.requestTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VESTIGIO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "vestigio-web",
		Short:         "Self-hosted web client for the Vestigio party-game suite.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.apiURL, "api-url", "http://localhost:8080/api", "base URL of the game server's REST API (env: VESTIGIO_API_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: VESTIGIO_BIND)")
	fs.StringVar(&cfg.brokerURL, "broker-url", "ws://localhost:8080/ws", "websocket endpoint of the game broker (env: VESTIGIO_BROKER_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 8090, "port to listen on (env: VESTIGIO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: VESTIGIO_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: VESTIGIO_PROFILE)")
	fs.DurationVar(&cfg.reconnectDelay, "reconnect-delay", 5*time.Second, "fixed delay between broker reconnect attempts (env: VESTIGIO_RECONNECT_DELAY)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", 10*time.Second, "per-request timeout for REST calls to the game server (env: VESTIGIO_REQUEST_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: VESTIGIO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: VESTIGIO_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: VESTIGIO_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: VESTIGIO_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("vestigio-web v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jacoelho/crator/internal/crates"
	"github.com/jacoelho/crator/internal/exit"
	"github.com/jacoelho/crator/internal/httpclient"
	"github.com/jacoelho/crator/internal/output"
	"github.com/jacoelho/crator/internal/query"
)

const (
	// DefaultTimeout is the default timeout for registry requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit follows the crates.io crawler policy of one request
	// per second.
	DefaultRateLimit = 1.0

	// DefaultUserAgent identifies crator to the registry.
	DefaultUserAgent = "crator/1.0"
)

var (
	ErrNoArguments     = errors.New("no arguments provided")
	ErrNoCrates        = errors.New("no crate names specified")
	ErrInvalidRegistry = errors.New("registry must be an absolute http(s) URL")
	ErrEmptyUserAgent  = errors.New("user agent cannot be empty")
)

// Config represents the complete configuration for the crator tool.
type Config struct {
	Crates []string
	Debug  bool
	Format output.Format

	// Registry client configuration
	Registry       string
	Insecure       bool
	CACertFile     string
	RequestTimeout time.Duration
	RateLimit      float64 // Requests per second (0 = unlimited)
	UserAgent      string

	Queries []query.Query
}

// TLSConfig returns a TLS configuration based on the config settings.
func (c *Config) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CACertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %s: %w", c.CACertFile, err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", c.CACertFile)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

// HTTPClient creates an HTTP client configured with the settings from this Config.
func (c *Config) HTTPClient() (*http.Client, error) {
	tlsConfig, err := c.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
	}

	return httpclient.New(tlsConfig, c.RequestTimeout, c.UserAgent), nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.Crates) == 0 {
		return ErrNoCrates
	}

	for _, name := range c.Crates {
		if err := crates.ValidateName(name); err != nil {
			return err
		}
	}

	u, err := url.Parse(c.Registry)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w, got: %s", ErrInvalidRegistry, c.Registry)
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		return ErrEmptyUserAgent
	}

	if c.CACertFile != "" {
		if _, err := os.Stat(c.CACertFile); err != nil {
			return fmt.Errorf("CA certificate file %s not found: %w", c.CACertFile, err)
		}
	}

	return nil
}

// queriesFlag implements flag.Value for parsing multiple -query flags.
// Order is preserved so fields print in the order given.
type queriesFlag []query.Query

// String returns a string representation of the queries flag for flag.Value interface.
func (q *queriesFlag) String() string {
	pairs := make([]string, 0, len(*q))
	for _, item := range *q {
		pairs = append(pairs, item.Label+"="+item.Expr)
	}
	return strings.Join(pairs, ",")
}

// Set parses and stores a query in label=expr format for flag.Value interface.
func (q *queriesFlag) Set(value string) error {
	parsed, err := query.Parse(value)
	if err != nil {
		return err
	}

	*q = append(*q, parsed)
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s\n", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	var (
		debug      = fs.Bool("debug", false, "Enable debug output with request ids, status and executor stats")
		format     = fs.String("format", string(output.FormatText), "Output format: text, json or yaml")
		registry   = fs.String("registry", crates.DefaultRegistry, "Base URL of the crate registry")
		insecure   = fs.Bool("insecure", false, "Skip TLS certificate verification")
		caCertFile = fs.String("cacert", "", "Path to CA certificate file for TLS verification")
		timeout    = fs.Duration("timeout", DefaultTimeout, "Registry request timeout")
		rateLimit  = fs.Float64("rate-limit", DefaultRateLimit, "Rate limit in requests per second (0 for unlimited)")
		userAgent  = fs.String("user-agent", DefaultUserAgent, "User-Agent sent to the registry")
		queries    queriesFlag
	)

	fs.Var(&queries, "query", "Extra field in format label=expr (can be used multiple times)")

	// Crate names and flags may be interleaved: "crator serde --format json".
	var names []string
	rest := args[1:]
	for {
		if err := fs.Parse(rest); err != nil {
			if err == flag.ErrHelp {
				return nil, exit.Success(Usage() + "\n")
			}
			return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s\n", err, Usage())
		}
		if fs.NArg() == 0 {
			break
		}
		names = append(names, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	parsedFormat, err := output.ParseFormat(*format)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s\n", err, Usage())
	}

	config := &Config{
		Crates:         names,
		Debug:          *debug,
		Format:         parsedFormat,
		Registry:       strings.TrimRight(*registry, "/"),
		Insecure:       *insecure,
		CACertFile:     *caCertFile,
		RequestTimeout: *timeout,
		RateLimit:      *rateLimit,
		UserAgent:      *userAgent,
		Queries:        queries,
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s\n", err, Usage())
	}

	return config, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `crator - crate metadata from crates.io

Usage: crator [options] <crate> [crate] ...

Options:
  --format FORMAT         Output format: text, json or yaml (default: text)
  --query LABEL=EXPR      Extra field; EXPR is a dot-path (crate.homepage)
                          or a JSONPath starting with $ (can be used multiple times)
  --registry URL          Base URL of the crate registry (default: https://crates.io)
  --rate-limit N          Rate limit in requests per second (default: 1, 0 for unlimited)
  --timeout DURATION      Registry request timeout (default: 30s)
  --user-agent STRING     User-Agent sent to the registry (default: crator/1.0)
  --insecure              Skip TLS certificate verification
  --cacert FILE           Path to CA certificate file for TLS verification
  --debug                 Enable debug output on stderr
  -h, --help              Show this help message

Examples:
  crator serde                                  # Show serde metadata
  crator serde tokio --format json              # Two crates as JSON
  crator mathlab --query msrv=crate.rust_version
  crator mathlab --query 'first=$.versions[0].num'`
}

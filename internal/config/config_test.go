package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jacoelho/crator/internal/crates"
	"github.com/jacoelho/crator/internal/exit"
	"github.com/jacoelho/crator/internal/output"
	"github.com/jacoelho/crator/internal/query"
)

// generateTestCertificate creates a self-signed certificate for testing purposes
func generateTestCertificate() ([]byte, error) {
	// Generate a private key
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	// Create certificate template
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Country:      []string{"AU"},
			Province:     []string{"Some-State"},
			Organization: []string{"Some Organization"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour), // Valid for 1 year
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	// Create the certificate
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	// Encode certificate to PEM format
	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	})

	return certPEM, nil
}

func TestParse(t *testing.T) {
	tempDir := t.TempDir()
	caCertFile := filepath.Join(tempDir, "ca.pem")
	if err := os.WriteFile(caCertFile, []byte("-----BEGIN CERTIFICATE-----\ntest\n-----END CERTIFICATE-----\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		args         []string
		wantCrates   []string
		wantFormat   output.Format
		wantRegistry string
		wantRate     float64
		wantTimeout  time.Duration
		wantQueries  []string
		wantDebug    bool
		wantCACert   string
		wantExitCode int
		wantMessage  string
		wantErr      bool
	}{
		{
			name:         "single_crate_defaults",
			args:         []string{"crator", "serde"},
			wantCrates:   []string{"serde"},
			wantFormat:   output.FormatText,
			wantRegistry: crates.DefaultRegistry,
			wantRate:     DefaultRateLimit,
			wantTimeout:  DefaultTimeout,
		},
		{
			name:         "flags_after_crates",
			args:         []string{"crator", "serde", "tokio", "--format", "json", "--rate-limit", "0"},
			wantCrates:   []string{"serde", "tokio"},
			wantFormat:   output.FormatJSON,
			wantRegistry: crates.DefaultRegistry,
			wantRate:     0,
			wantTimeout:  DefaultTimeout,
		},
		{
			name:         "flags_between_crates",
			args:         []string{"crator", "serde", "--debug", "tokio", "--timeout", "5s"},
			wantCrates:   []string{"serde", "tokio"},
			wantFormat:   output.FormatText,
			wantRegistry: crates.DefaultRegistry,
			wantRate:     DefaultRateLimit,
			wantTimeout:  5 * time.Second,
			wantDebug:    true,
		},
		{
			name: "queries_keep_order",
			args: []string{
				"crator", "--query", "msrv=crate.rust_version",
				"--query", "first=$.versions[0].num", "--format", "yaml", "mathlab",
			},
			wantCrates:   []string{"mathlab"},
			wantFormat:   output.FormatYAML,
			wantRegistry: crates.DefaultRegistry,
			wantRate:     DefaultRateLimit,
			wantTimeout:  DefaultTimeout,
			wantQueries:  []string{"msrv=crate.rust_version", "first=$.versions[0].num"},
		},
		{
			name:         "custom_registry_trailing_slash",
			args:         []string{"crator", "--registry", "http://localhost:8080/", "--cacert", caCertFile, "serde"},
			wantCrates:   []string{"serde"},
			wantFormat:   output.FormatText,
			wantRegistry: "http://localhost:8080",
			wantRate:     DefaultRateLimit,
			wantTimeout:  DefaultTimeout,
			wantCACert:   caCertFile,
		},
		{
			name:         "no_arguments",
			args:         []string{},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  ErrNoArguments.Error(),
		},
		{
			name:         "no_crates",
			args:         []string{"crator", "--debug"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  ErrNoCrates.Error(),
		},
		{
			name:         "invalid_crate_name",
			args:         []string{"crator", "serde/../x"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  "invalid crate name",
		},
		{
			name:         "invalid_format",
			args:         []string{"crator", "--format", "xml", "serde"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  "format must be one of",
		},
		{
			name:         "invalid_query",
			args:         []string{"crator", "--query", "crate.name", "serde"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  "invalid query",
		},
		{
			name:         "invalid_registry",
			args:         []string{"crator", "--registry", "ftp://example.com", "serde"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  "registry must be an absolute",
		},
		{
			name:         "empty_user_agent",
			args:         []string{"crator", "--user-agent", " ", "serde"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  ErrEmptyUserAgent.Error(),
		},
		{
			name:         "missing_cacert",
			args:         []string{"crator", "--cacert", "/nonexistent/ca.pem", "serde"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  "CA certificate file",
		},
		{
			name:         "unknown_flag",
			args:         []string{"crator", "--repeat", "2", "serde"},
			wantErr:      true,
			wantExitCode: exit.CodeUsage,
			wantMessage:  "failed to parse arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, exitResult := Parse(tt.args)

			if tt.wantErr {
				if exitResult == nil {
					t.Fatalf("Parse() expected exit result, got config %+v", cfg)
				}
				if exitResult.ExitCode != tt.wantExitCode {
					t.Errorf("Parse() exit code = %d, want %d", exitResult.ExitCode, tt.wantExitCode)
				}
				if !strings.Contains(exitResult.Message, tt.wantMessage) {
					t.Errorf("Parse() message = %q, want it to contain %q", exitResult.Message, tt.wantMessage)
				}
				return
			}

			if exitResult != nil {
				t.Fatalf("Parse() unexpected exit result: %s", exitResult.Message)
			}

			if !reflect.DeepEqual(cfg.Crates, tt.wantCrates) {
				t.Errorf("Crates = %v, want %v", cfg.Crates, tt.wantCrates)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFormat)
			}
			if cfg.Registry != tt.wantRegistry {
				t.Errorf("Registry = %q, want %q", cfg.Registry, tt.wantRegistry)
			}
			if cfg.RateLimit != tt.wantRate {
				t.Errorf("RateLimit = %v, want %v", cfg.RateLimit, tt.wantRate)
			}
			if cfg.RequestTimeout != tt.wantTimeout {
				t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, tt.wantTimeout)
			}
			if cfg.Debug != tt.wantDebug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.wantDebug)
			}
			if cfg.CACertFile != tt.wantCACert {
				t.Errorf("CACertFile = %q, want %q", cfg.CACertFile, tt.wantCACert)
			}
			if cfg.UserAgent != DefaultUserAgent {
				t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, DefaultUserAgent)
			}

			gotQueries := make([]string, 0, len(cfg.Queries))
			for _, q := range cfg.Queries {
				gotQueries = append(gotQueries, q.Label+"="+q.Expr)
			}
			if len(gotQueries) != len(tt.wantQueries) || (len(gotQueries) > 0 && !reflect.DeepEqual(gotQueries, tt.wantQueries)) {
				t.Errorf("Queries = %v, want %v", gotQueries, tt.wantQueries)
			}
		})
	}
}

func TestParseHelpFlag(t *testing.T) {
	for _, flag := range []string{"-help", "--help", "-h"} {
		_, exitResult := Parse([]string{"crator", flag})
		if exitResult == nil {
			t.Fatalf("expected exit result for %s flag", flag)
		}
		if exitResult.ExitCode != exit.CodeOK {
			t.Errorf("expected exit code 0 for %s, got %d", flag, exitResult.ExitCode)
		}
		if !strings.Contains(exitResult.Message, "Usage: crator") {
			t.Errorf("help output for %s missing usage", flag)
		}
	}
}

func TestQueriesFlag(t *testing.T) {
	var q queriesFlag

	if err := q.Set("msrv=crate.rust_version"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := q.Set("first=$.versions[0].num"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := q.Set("no-separator"); !errors.Is(err, query.ErrInvalidQuery) {
		t.Errorf("Set() error = %v, want ErrInvalidQuery", err)
	}

	if got, want := q.String(), "msrv=crate.rust_version,first=$.versions[0].num"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestConfig_TLSConfig(t *testing.T) {
	tempDir := t.TempDir()

	validCACert := filepath.Join(tempDir, "ca.pem")
	validCertContent, err := generateTestCertificate()
	if err != nil {
		t.Fatalf("Failed to generate test certificate: %v", err)
	}
	if err := os.WriteFile(validCACert, validCertContent, 0644); err != nil {
		t.Fatalf("Failed to create valid CA cert file: %v", err)
	}

	invalidCACert := filepath.Join(tempDir, "invalid_ca.pem")
	invalidCertContent := `-----BEGIN CERTIFICATE-----
invalid certificate content
-----END CERTIFICATE-----`
	if err := os.WriteFile(invalidCACert, []byte(invalidCertContent), 0644); err != nil {
		t.Fatalf("Failed to create invalid CA cert file: %v", err)
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		checkFn func(*testing.T, *tls.Config)
	}{
		{
			name: "default_config",
			config: &Config{
				Insecure:   false,
				CACertFile: "",
			},
			wantErr: false,
			checkFn: func(t *testing.T, tlsConfig *tls.Config) {
				if tlsConfig.InsecureSkipVerify {
					t.Error("Expected InsecureSkipVerify to be false")
				}
				if tlsConfig.RootCAs != nil {
					t.Error("Expected RootCAs to be nil")
				}
			},
		},
		{
			name: "insecure_config",
			config: &Config{
				Insecure:   true,
				CACertFile: "",
			},
			wantErr: false,
			checkFn: func(t *testing.T, tlsConfig *tls.Config) {
				if !tlsConfig.InsecureSkipVerify {
					t.Error("Expected InsecureSkipVerify to be true")
				}
			},
		},
		{
			name: "with_valid_ca_cert",
			config: &Config{
				CACertFile: validCACert,
			},
			wantErr: false,
			checkFn: func(t *testing.T, tlsConfig *tls.Config) {
				if tlsConfig.RootCAs == nil {
					t.Error("Expected RootCAs to be set")
				}
			},
		},
		{
			name: "with_nonexistent_ca_cert",
			config: &Config{
				Insecure:   false,
				CACertFile: "/nonexistent/ca.pem",
			},
			wantErr: true,
			checkFn: nil,
		},
		{
			name: "with_invalid_ca_cert",
			config: &Config{
				Insecure:   false,
				CACertFile: invalidCACert,
			},
			wantErr: true,
			checkFn: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tlsConfig, err := tt.config.TLSConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.TLSConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.checkFn != nil {
				tt.checkFn(t, tlsConfig)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	usage := Usage()

	expectedSections := []string{
		"crator - crate metadata",
		"Usage: crator [options]",
		"Options:",
		"--help",
		"--debug",
		"--format",
		"--query",
		"--rate-limit",
		"--registry",
		"Examples:",
	}

	for _, section := range expectedSections {
		if !strings.Contains(usage, section) {
			t.Errorf("Usage() missing expected section: %s", section)
		}
	}
}

func TestConfig_HTTPClient(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "basic_http_client",
			config: &Config{
				RequestTimeout: 10 * time.Second,
				UserAgent:      DefaultUserAgent,
			},
		},
		{
			name: "with_invalid_cacert",
			config: &Config{
				RequestTimeout: 30 * time.Second,
				CACertFile:     "/nonexistent/ca.pem",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := tt.config.HTTPClient()

			if tt.wantErr {
				if err == nil {
					t.Error("HTTPClient() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("HTTPClient() unexpected error: %v", err)
			}
			if client.Timeout != tt.config.RequestTimeout {
				t.Errorf("HTTPClient() timeout = %v, want %v", client.Timeout, tt.config.RequestTimeout)
			}
			if client.Transport == nil || client.Transport == http.DefaultTransport {
				t.Errorf("HTTPClient() transport = %T, want a tuned transport", client.Transport)
			}
		})
	}
}

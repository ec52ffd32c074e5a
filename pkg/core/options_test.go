package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name: "minimal",
			opts: Options{Glob: "**/*.test.yml"},
		},
		{
			name: "everything set",
			opts: Options{
				Glob:        "tests/*.yml",
				Timeout:     5,
				Rate:        2.5,
				Webhook:     "https://example.com/hook",
				Token:       "abc",
				Pushgateway: "http://localhost:9091",
				Env:         "dev",
			},
		},
		{
			name:    "missing glob",
			opts:    Options{},
			wantErr: "invalid glob (required)",
		},
		{
			name:    "negative timeout",
			opts:    Options{Glob: "x", Timeout: -1},
			wantErr: "invalid timeout (gte)",
		},
		{
			name:    "webhook is not a url",
			opts:    Options{Glob: "x", Webhook: "not a url"},
			wantErr: "invalid webhook (url)",
		},
		{
			name:    "env with path separator",
			opts:    Options{Glob: "x", Env: "../prod"},
			wantErr: "invalid env (excludesall)",
		},
		{
			name:    "client id without secret",
			opts:    Options{Glob: "x", WebhookClientID: "id", WebhookTokenURL: "https://auth.example.com/token"},
			wantErr: "invalid webhookclientsecret (required_with)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUsage)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptions_WebhookURL(t *testing.T) {
	assert.Equal(t, "", (&Options{}).WebhookURL())
	assert.Equal(t, DefaultWebhook, (&Options{Token: "t"}).WebhookURL())
	assert.Equal(t, "https://x.dev", (&Options{Token: "t", Webhook: "https://x.dev"}).WebhookURL())
}

func TestOptions_TimeoutDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, (&Options{}).TimeoutDuration())
	assert.Equal(t, 2*time.Second, (&Options{Timeout: 2}).TimeoutDuration())
}

func TestExitCode(t *testing.T) {
	cfgErr := NewConfigError("url", "", ErrMissingURL)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "config error", err: cfgErr, want: ExitConfig},
		{name: "wrapped config error", err: fmt.Errorf("loading: %w", cfgErr), want: ExitConfig},
		{name: "usage", err: fmt.Errorf("%w: bad glob", ErrUsage), want: ExitUsage},
		{name: "anything else", err: errors.New("boom"), want: ExitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestConfigError(t *testing.T) {
	err := WithLocation(NewConfigError("url", "", ErrMissingURL), "users", "create user")

	assert.EqualError(t, err, `users: step "create user": url: no url found`)
	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, err, ErrMissingURL)

	plain := errors.New("plain")
	assert.Same(t, plain, WithLocation(plain, "w", "s"))
}

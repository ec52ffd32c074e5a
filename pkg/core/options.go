package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultWebhook receives runs when a token is given without an explicit webhook.
const DefaultWebhook = "https://app.capter.io/api/webhooks/runs"

// DefaultTimeout bounds connection establishment for every request.
const DefaultTimeout = 30

// Options are the settings of one `capter test` invocation, collected from
// flags, environment and .capter/config.json.
type Options struct {
	Glob        string  `validate:"required"`
	Timeout     int     `validate:"gte=0"`            // seconds
	Rate        float64 `validate:"gte=0"`            // requests per second, 0 = unlimited
	Webhook     string  `validate:"omitempty,url"`    // where finished runs are posted
	Token       string  `validate:"omitempty,printascii"`
	Pushgateway string  `validate:"omitempty,url"`
	Env         string  `validate:"omitempty,excludesall=/\\"` // environment file name
	DryRun      bool
	Debug       bool
	CopyURL     bool

	// OAuth2 client credentials used to authenticate webhook posts.
	WebhookClientID     string
	WebhookClientSecret string `validate:"required_with=WebhookClientID"`
	WebhookTokenURL     string `validate:"required_with=WebhookClientID,omitempty,url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the options. Failures wrap ErrUsage.
func (o *Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("invalid %s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrUsage, strings.Join(msgs, ", "))
}

// TimeoutDuration returns the connect timeout. Zero falls back to the default.
func (o *Options) TimeoutDuration() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(o.Timeout) * time.Second
}

// WebhookURL resolves where to post the run, if anywhere. A token without an
// explicit webhook selects the default one.
func (o *Options) WebhookURL() string {
	if o.Webhook != "" {
		return o.Webhook
	}
	if o.Token != "" {
		return DefaultWebhook
	}
	return ""
}

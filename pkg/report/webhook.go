package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/blackcoderx/capter/pkg/source"
	"github.com/blackcoderx/capter/pkg/workflow"
)

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Source *source.RunSource  `json:"source"`
	Data   []*workflow.Result `json:"data"`
}

// WebhookResponse is what the webhook may answer with.
type WebhookResponse struct {
	URL string `json:"url"`
}

// Webhook posts finished runs.
type Webhook struct {
	url     string
	token   string
	dryRun  bool
	copyURL bool
	out     io.Writer
	client  *http.Client
	oauth   *clientcredentials.Config
	copy    func(string) error
	log     *logrus.Entry
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithToken sends token as the `token` query parameter.
func WithToken(token string) WebhookOption {
	return func(w *Webhook) {
		w.token = token
	}
}

// WithDryRun prints a notice instead of posting.
func WithDryRun(dryRun bool) WebhookOption {
	return func(w *Webhook) {
		w.dryRun = dryRun
	}
}

// WithCopyURL copies the returned run URL to the clipboard.
func WithCopyURL(copyURL bool) WebhookOption {
	return func(w *Webhook) {
		w.copyURL = copyURL
	}
}

// WithClientCredentials authenticates posts with an OAuth2 client
// credentials token fetched from tokenURL.
func WithClientCredentials(clientID, clientSecret, tokenURL string) WebhookOption {
	return func(w *Webhook) {
		if clientID == "" {
			return
		}
		w.oauth = &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
	}
}

// WithWebhookClient sets the HTTP client used for posting.
func WithWebhookClient(client *http.Client) WebhookOption {
	return func(w *Webhook) {
		w.client = client
	}
}

// WithWebhookLogger sets the logger.
func WithWebhookLogger(log *logrus.Entry) WebhookOption {
	return func(w *Webhook) {
		w.log = log
	}
}

// NewWebhook creates a Webhook posting to rawURL and writing progress to out.
func NewWebhook(out io.Writer, rawURL string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:    rawURL,
		out:    out,
		client: &http.Client{Timeout: 30 * time.Second},
		copy:   clipboard.WriteAll,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Post sends results and the run source. Progress and failures are printed;
// the returned error is informational and does not change the run outcome.
func (w *Webhook) Post(ctx context.Context, src *source.RunSource, results []*workflow.Result) (*WebhookResponse, error) {
	if w.dryRun {
		fmt.Fprint(w.out, "\n---\n\n")
		fmt.Fprintln(w.out, dimStyle.Render("dry run - skipped posting to webhook"))
		return nil, nil
	}

	fmt.Fprint(w.out, "\n---\n\n")
	fmt.Fprint(w.out, dimStyle.Render(fmt.Sprintf("Posting to webhook [%s]... ", w.url)))

	res, err := w.post(ctx, Payload{Source: src, Data: results})
	if err != nil {
		fmt.Fprintln(w.out, errorStyle.Render("✕"))
		fmt.Fprintln(w.out, dimStyle.Render("Error sending webhook: "+err.Error()))
		return nil, err
	}

	fmt.Fprintln(w.out, passStyle.Render("✓"))
	fmt.Fprintln(w.out, dimStyle.Render("done! ")+"✨")

	if res.URL != "" {
		fmt.Fprintln(w.out)
		fmt.Fprintln(w.out, accent.Render(res.URL))
		if w.copyURL {
			if err := w.copy(res.URL); err != nil {
				w.log.WithError(err).Warn("could not copy run url to clipboard")
			} else {
				fmt.Fprintln(w.out, dimStyle.Render("(copied to clipboard)"))
			}
		}
	}
	return res, nil
}

func (w *Webhook) post(ctx context.Context, payload Payload) (*WebhookResponse, error) {
	target, err := url.Parse(w.url)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	if w.token != "" {
		q := target.Query()
		q.Set("token", w.token)
		target.RawQuery = q.Encode()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.client
	if w.oauth != nil {
		client = w.oauth.Client(context.WithValue(ctx, oauth2.HTTPClient, w.client))
	}

	w.log.WithFields(logrus.Fields{"url": target.Redacted(), "workflows": len(payload.Data)}).Debug("posting run")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return nil, errors.New(msg)
	}

	var res WebhookResponse
	if len(bytes.TrimSpace(data)) > 0 {
		// Anything that isn't {url} is accepted as a plain acknowledgement.
		_ = json.Unmarshal(data, &res)
	}
	return &res, nil
}

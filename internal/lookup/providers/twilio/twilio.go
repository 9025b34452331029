// Package twilio implements the Twilio Lookup v1 adapter (carrier and CNAM).
package twilio

import (
	"context"
	"net/url"
	"strings"
	"time"

	"numlookup/internal/lookup/models"
	"numlookup/internal/lookup/providers"
	"numlookup/internal/lookup/providers/httpclient"
)

const (
	Name           = "twilio"
	DefaultBaseURL = "https://lookups.twilio.com"
)

// Provider queries Twilio Lookup with HTTP basic auth.
type Provider struct {
	accountSID string
	authToken  string
	baseURL    string
	client     *httpclient.Client
}

// New creates a Twilio provider. Both accountSID and authToken are required;
// without them every lookup reports "not configured".
func New(accountSID, authToken, baseURL string, timeout time.Duration, opts ...httpclient.Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     httpclient.New(Name, timeout, opts...),
	}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) configured() bool {
	return p.accountSID != "" && p.authToken != ""
}

// Health reports whether credentials are present.
func (p *Provider) Health(context.Context) error {
	if !p.configured() {
		return providers.ErrNotConfigured
	}
	return nil
}

// Lookup calls GET {base}/v1/PhoneNumbers/{number}?Type=carrier&Type=caller-name.
func (p *Provider) Lookup(ctx context.Context, key models.QueryKey) models.ProviderResult {
	if !p.configured() {
		return providers.NotConfigured(Name)
	}

	q := url.Values{}
	q.Add("Type", "carrier")
	q.Add("Type", "caller-name")
	endpoint := p.baseURL + "/v1/PhoneNumbers/" + url.PathEscape(key.String()) + "?" + q.Encode()

	data, err := p.client.GetJSON(ctx, httpclient.Request{
		URL:      endpoint,
		Username: p.accountSID,
		Password: p.authToken,
	})
	if err != nil {
		return providers.Failure(Name, err)
	}
	return models.NewAvailable(Name, data)
}

// MapFields maps the Twilio payload onto canonical fields:
//
//	phone_number             -> international_format
//	country_code             -> country_code
//	carrier.name             -> carrier
//	carrier.type             -> line_type
//	caller_name.caller_name  -> caller_name (a bare string is taken as is)
func (p *Provider) MapFields(fields map[string]any) models.FieldSet {
	out := models.FieldSet{}
	if v, ok := fields["phone_number"]; ok {
		out[models.FieldInternationalFormat] = v
	}
	if v, ok := fields["country_code"]; ok {
		out[models.FieldCountryCode] = v
	}
	if v, ok := models.Nested(fields, "carrier", "name"); ok {
		out[models.FieldCarrier] = v
	}
	if v, ok := models.Nested(fields, "carrier", "type"); ok {
		out[models.FieldLineType] = v
	}
	switch cn := fields["caller_name"].(type) {
	case string:
		out[models.FieldCallerName] = cn
	case map[string]any:
		if v, ok := cn["caller_name"]; ok {
			out[models.FieldCallerName] = v
		}
	}
	return out
}

package otrs

import (
	"crypto/tls"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	Namespace = "http://www.otrs.org/TicketConnector/"

	soapEnvNamespace     = "http://schemas.xmlsoap.org/soap/envelope/"
	genericInterfacePath = "/otrs/nph-genericinterface.pl"

	DefaultTimeout = 30 * time.Second

	defaultContentType          = "text/plain; charset=utf8"
	defaultSenderType           = "system"
	defaultCommunicationChannel = "Internal"
)

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Timeout and TLS options applied
// before it are discarded.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Only meant for
// internal helpdesk installations without a valid certificate.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}
		transport, ok := c.httpClient.Transport.(*http.Transport)
		if !ok || transport == nil {
			transport = http.DefaultTransport.(*http.Transport).Clone()
		} else {
			transport = transport.Clone()
		}
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
		c.httpClient.Transport = transport
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit caps the number of requests per second sent to the service.
// A qps of zero or less leaves requests unthrottled.
func WithRateLimit(qps float64, burst int) Option {
	return func(c *Client) {
		if qps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

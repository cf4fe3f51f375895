package otrs

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

const (
	opTicketSearch = "TicketSearch"
	opTicketGet    = "TicketGet"
	opTicketUpdate = "TicketUpdate"
)

// Client talks to the GenericTicketConnectorSOAP web service of an OTRS
// installation. Every request is authenticated with the configured login.
type Client struct {
	endpoint   string
	login      string
	password   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ticketmodel.Client = &Client{}

// CreateClient returns a client for the web service named service below the
// OTRS root address.
func CreateClient(root, service, login, password string, opts ...Option) (*Client, error) {
	endpoint, err := Endpoint(root, service)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		login:      login,
		password:   password,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint builds the web service URL. A root already pointing at a web
// service is returned unchanged.
func Endpoint(root, service string) (string, error) {
	if _, err := url.ParseRequestURI(root); err != nil {
		return "", fmt.Errorf("invalid url endpoint %s: %v", root, err)
	}

	root = strings.TrimSuffix(root, "/")
	if strings.Contains(root, "/Webservice/") {
		return root, nil
	}
	if service == "" {
		return "", errors.New("soap web service name is required")
	}
	if !strings.HasSuffix(root, "nph-genericinterface.pl") {
		root += genericInterfacePath
	}
	return root + "/Webservice/" + url.PathEscape(service), nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) SearchTickets(ctx context.Context, query ticketmodel.SearchQuery) ([]ticketmodel.TicketID, error) {
	req := &ticketSearchRequest{
		UserLogin: c.login,
		Password:  c.password,
		Title:     query.Title,
	}
	for _, q := range query.QueueIDs {
		req.QueueIDs = append(req.QueueIDs, int(q))
	}

	var resp responseEnvelope[ticketSearchResponse]
	if err := c.call(ctx, opTicketSearch, "", req, &resp); err != nil {
		return nil, err
	}
	if e := resp.Body.Response.Error; e != nil {
		return nil, remoteError(opTicketSearch, "", e)
	}

	ids := make([]ticketmodel.TicketID, 0, len(resp.Body.Response.TicketIDs))
	for _, id := range resp.Body.Response.TicketIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, ticketmodel.TicketID(id))
		}
	}
	return ids, nil
}

func (c *Client) GetTicket(ctx context.Context, id ticketmodel.TicketID) (*ticketmodel.Ticket, error) {
	if id == "" {
		return nil, &ticketmodel.Error{Op: opTicketGet, Kind: ticketmodel.KindInvalid, Err: ticketmodel.ErrInvalidTicket}
	}

	req := &ticketGetRequest{
		UserLogin:     c.login,
		Password:      c.password,
		TicketID:      string(id),
		AllArticles:   1,
		DynamicFields: 1,
		Attachments:   1,
	}

	var resp responseEnvelope[ticketGetResponse]
	if err := c.call(ctx, opTicketGet, id, req, &resp); err != nil {
		return nil, err
	}
	if e := resp.Body.Response.Error; e != nil {
		return nil, remoteError(opTicketGet, id, e)
	}
	if len(resp.Body.Response.Tickets) == 0 {
		return nil, &ticketmodel.Error{Op: opTicketGet, TicketID: id, Kind: ticketmodel.KindNotFound}
	}

	t, err := resp.Body.Response.Tickets[0].toTicket()
	if err != nil {
		return nil, &ticketmodel.Error{Op: opTicketGet, TicketID: id, Kind: ticketmodel.KindTransport, Err: fmt.Errorf("decode ticket: %w", err)}
	}
	return t, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id ticketmodel.TicketID, update ticketmodel.TicketUpdate) error {
	if id == "" {
		return &ticketmodel.Error{Op: opTicketUpdate, Kind: ticketmodel.KindInvalid, Err: ticketmodel.ErrInvalidTicket}
	}
	if update.Empty() {
		return &ticketmodel.Error{Op: opTicketUpdate, TicketID: id, Kind: ticketmodel.KindInvalid, Err: ticketmodel.ErrEmptyUpdate}
	}

	req := newUpdateRequest(id, update)
	req.UserLogin = c.login
	req.Password = c.password

	var resp responseEnvelope[ticketUpdateResponse]
	if err := c.call(ctx, opTicketUpdate, id, req, &resp); err != nil {
		return err
	}
	if e := resp.Body.Response.Error; e != nil {
		return remoteError(opTicketUpdate, id, e)
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, id ticketmodel.TicketID, request interface{}, response interface{}) error {
	fail := func(kind ticketmodel.Kind, err error) error {
		return &ticketmodel.Error{Op: op, TicketID: id, Kind: kind, Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(ticketmodel.KindTransport, err)
		}
	}

	env := envelope{
		SoapEnv: soapEnvNamespace,
		Tns:     Namespace,
		Body:    requestBody{Request: request},
	}
	body, err := xml.Marshal(env)
	if err != nil {
		return fail(ticketmodel.KindInvalid, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(append([]byte(xml.Header), body...)))
	if err != nil {
		return fail(ticketmodel.KindInvalid, fmt.Errorf("create request failed: %w", err))
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+Namespace+op+`"`)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	klog.V(5).InfoS("soap request", "op", op, "ticket", id, "endpoint", c.endpoint)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fail(ticketmodel.KindTransport, fmt.Errorf("error making http request: %w", err))
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fail(ticketmodel.KindTransport, fmt.Errorf("read response: %w", err))
	}

	// faults come with status 500, so decode before looking at the status
	var fault responseEnvelope[struct{}]
	if xml.Unmarshal(resBody, &fault) == nil && fault.Body.Fault != nil {
		f := fault.Body.Fault
		kind := ticketmodel.KindRemote
		if strings.Contains(strings.ToLower(f.String), "auth") {
			kind = ticketmodel.KindAuth
		}
		return &ticketmodel.Error{Op: op, TicketID: id, Kind: kind, Code: f.Code, Err: errors.New(f.String)}
	}

	if res.StatusCode != http.StatusOK {
		return fail(ticketmodel.KindTransport, fmt.Errorf("statuscode: %v, body: %v", res.StatusCode, truncate(string(resBody), 512)))
	}

	if err := xml.Unmarshal(resBody, response); err != nil {
		return fail(ticketmodel.KindTransport, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func remoteError(op string, id ticketmodel.TicketID, e *responseError) error {
	return &ticketmodel.Error{
		Op:       op,
		TicketID: id,
		Kind:     kindForCode(e.ErrorCode),
		Code:     e.ErrorCode,
		Err:      errors.New(e.ErrorMessage),
	}
}

// kindForCode maps connector error codes such as "TicketGet.AccessDenied".
// The connector reports a missing ticket as AccessDenied.
func kindForCode(code string) ticketmodel.Kind {
	_, reason, found := strings.Cut(code, ".")
	if !found {
		reason = code
	}
	switch reason {
	case "AuthFail":
		return ticketmodel.KindAuth
	case "AccessDenied", "NotFound":
		return ticketmodel.KindNotFound
	case "MissingParameter", "InvalidParameter":
		return ticketmodel.KindInvalid
	default:
		return ticketmodel.KindRemote
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

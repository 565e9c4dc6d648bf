package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/napryag/barber_booking_bot/pkg/booking"
	"github.com/napryag/barber_booking_bot/pkg/model"
)

const dayFormat = "2006-01-02"

// Client talks to the booking backend. All state lives server-side; the
// client only carries the base URL and the bearer token.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken sets the bearer token attached to every subsequent request.
// An empty token detaches it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// errorMessage pulls the user-facing message and structured code out of an
// error body, tolerating the field names the backend has been seen using.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func parseErrorBody(raw []byte) (message, code string) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", ""
	}
	if body.Message != "" {
		return body.Message, body.Code
	}
	return body.Error, body.Code
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// Login authenticates and stores the bearer token on the client. The token
// may arrive as "token", "accessToken" or "jwt"; the user either nested
// under "user" or flattened into the top-level object.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthUser, error) {
	raw, status, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		message, _ := parseErrorBody(raw)
		if message == "" {
			message = "login failed"
		}
		return nil, errors.New(message)
	}

	var body struct {
		Token       string          `json:"token"`
		AccessToken string          `json:"accessToken"`
		Jwt         string          `json:"jwt"`
		User        *model.AuthUser `json:"user"`
		model.AuthUser
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	token := body.Token
	if token == "" {
		token = body.AccessToken
	}
	if token == "" {
		token = body.Jwt
	}
	if token == "" {
		return nil, errors.New("no token in login response")
	}
	c.SetToken(token)

	user := body.User
	if user == nil {
		user = &model.AuthUser{ID: body.ID, Name: body.Name, Email: body.Email}
	}
	return user, nil
}

// GetProvider fetches the provider with its service catalog and weekday
// availability. Fails with booking.LoadError on transport or non-2xx.
func (c *Client) GetProvider(ctx context.Context, providerID string) (*model.Provider, error) {
	raw, status, err := c.do(ctx, http.MethodGet, "/api/providers/"+url.PathEscape(providerID), nil, nil)
	if err != nil {
		return nil, &booking.LoadError{Msg: booking.MsgLoadServicesFallback}
	}
	if !is2xx(status) {
		message, _ := parseErrorBody(raw)
		if message == "" {
			message = booking.MsgLoadServicesFallback
		}
		return nil, &booking.LoadError{Msg: message}
	}

	p, err := normalizeProvider(raw)
	if err != nil {
		return nil, &booking.LoadError{Msg: booking.MsgLoadServicesFallback}
	}
	return p, nil
}

// ListSlots fetches the bookable start times for a (provider, service, day)
// triple. Only the calendar day is transmitted, formatted YYYY-MM-DD. An
// empty list is a valid outcome, not a fault; transport or non-2xx fails
// with booking.LoadError. No automatic retry.
func (c *Client) ListSlots(ctx context.Context, providerID, serviceID string, day time.Time) ([]string, error) {
	query := url.Values{}
	query.Set("providerId", providerID)
	query.Set("date", day.Format(dayFormat))
	query.Set("serviceId", serviceID)

	raw, status, err := c.do(ctx, http.MethodGet, "/api/appointments/slots", query, nil)
	if err != nil {
		return nil, &booking.LoadError{Msg: booking.MsgLoadSlotsFallback}
	}
	if !is2xx(status) {
		message, _ := parseErrorBody(raw)
		if message == "" {
			message = booking.MsgLoadSlotsFallback
		}
		return nil, &booking.LoadError{Msg: message}
	}
	return NormalizeSlots(raw), nil
}

// CreateAppointment submits a booking for one previously fetched slot.
// Failures are classified by booking.ClassifySubmitError, so a taken slot
// surfaces as booking.ConflictError and everything else as
// booking.SubmitError.
func (c *Client) CreateAppointment(ctx context.Context, providerID, serviceID, slotISO, notes string) (*model.Appointment, error) {
	raw, status, err := c.do(ctx, http.MethodPost, "/api/appointments", nil, map[string]string{
		"providerId": providerID,
		"serviceId":  serviceID,
		"date":       slotISO,
		"notes":      notes,
	})
	if err != nil {
		return nil, &booking.SubmitError{Msg: booking.MsgSubmitFallback}
	}
	if !is2xx(status) {
		message, code := parseErrorBody(raw)
		return nil, booking.ClassifySubmitError(code, message)
	}

	appt, err := normalizeAppointment(raw)
	if err != nil {
		return nil, &booking.SubmitError{Msg: booking.MsgSubmitFallback}
	}
	return appt, nil
}

// ListAppointments fetches the caller's appointments.
func (c *Client) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	raw, status, err := c.do(ctx, http.MethodGet, "/api/appointments", nil, nil)
	if err != nil {
		return nil, &booking.LoadError{Msg: "Não foi possível carregar seus agendamentos."}
	}
	if !is2xx(status) {
		message, _ := parseErrorBody(raw)
		if message == "" {
			message = "Não foi possível carregar seus agendamentos."
		}
		return nil, &booking.LoadError{Msg: message}
	}
	return normalizeAppointments(raw), nil
}

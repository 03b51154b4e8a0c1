package uvo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kiaconnect/vehicle-gateway/internal/log"
)

const (
	// MaxResponseLength caps how many bytes the client reads from an owner-API response.
	MaxResponseLength = 1 << 20

	// tokenSlack is how long before its stated expiry an access token is treated as stale.
	tokenSlack = time.Minute

	libraryName = "uvo-sdk"
)

func buildUserAgent() string {
	build, ok := debug.ReadBuildInfo()
	if !ok || build.Main.Path == "" {
		return libraryName
	}
	path := strings.Split(build.Main.Path, "/")
	app := path[len(path)-1]
	if build.Main.Version != "" && build.Main.Version != "(devel)" {
		app = fmt.Sprintf("%s/%s", app, build.Main.Version)
	}
	return fmt.Sprintf("%s %s", app, libraryName)
}

// Manager is an authenticated owner-API session. It satisfies the gateway's fleet capability:
// enumerating the account's vehicles and sending lock, unlock, climate, and status requests.
//
// A Manager refreshes its access token automatically and is safe for concurrent use.
type Manager struct {
	// The default UserAgent is constructed from build info, but can be overridden.
	UserAgent string

	client http.Client
	host   string
	creds  Credentials

	mu         sync.Mutex
	authHeader string
	expiresAt  time.Time
}

// Login authenticates creds against the owner API for the credentials' region and returns a
// Manager. A zero Region defaults to RegionDefault.
func Login(ctx context.Context, creds Credentials) (*Manager, error) {
	if creds.Username == "" || creds.Password == "" || creds.PIN == "" {
		return nil, fmt.Errorf("missing credentials: username, password, and PIN are all required")
	}
	if creds.Region == 0 {
		creds.Region = RegionDefault
	}
	if _, ok := regionNames[creds.Region]; !ok {
		return nil, errUnknownRegion(int(creds.Region))
	}
	m := &Manager{
		UserAgent: buildUserAgent(),
		host:      creds.Region.Host(),
		creds:     creds,
	}
	if err := m.authenticate(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenExpiry prefers the exp claim embedded in the token itself over the advertised lifetime,
// since the server's clock is authoritative for rejecting stale tokens.
func tokenExpiry(rsp *tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rsp.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Now().Add(time.Duration(rsp.ExpiresIn) * time.Second)
}

func (m *Manager) authenticate(ctx context.Context) error {
	body := map[string]string{
		"username": m.creds.Username,
		"password": m.creds.Password,
		"pin":      m.creds.PIN,
	}
	data, err := m.send(ctx, http.MethodPost, "api/v1/user/oauth2/token", body, false)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && (httpErr.Code == http.StatusUnauthorized || httpErr.Code == http.StatusForbidden) {
			return ErrAuthenticationFailed
		}
		return err
	}
	var rsp tokenResponse
	if err := json.Unmarshal(data, &rsp); err != nil {
		return &CommandError{Err: fmt.Errorf("unable to parse token response: %w", err), PossibleSuccess: false, PossibleTemporary: false}
	}
	if rsp.AccessToken == "" {
		return ErrAuthenticationFailed
	}
	if rsp.TokenType == "" {
		rsp.TokenType = "Bearer"
	}
	m.mu.Lock()
	m.authHeader = rsp.TokenType + " " + rsp.AccessToken
	m.expiresAt = tokenExpiry(&rsp)
	m.mu.Unlock()
	log.Debug("Authenticated with %s; token valid until %s", m.host, m.tokenDeadline().Format(time.RFC3339))
	return nil
}

func (m *Manager) tokenDeadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

func (m *Manager) currentAuthHeader() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authHeader
}

// refreshIfStale re-authenticates when the cached token is expired or about to expire.
func (m *Manager) refreshIfStale(ctx context.Context) error {
	if time.Until(m.tokenDeadline()) > tokenSlack {
		return nil
	}
	log.Info("Access token stale; re-authenticating")
	return m.authenticate(ctx)
}

// send performs one HTTP exchange with the owner API and maps error responses onto the package's
// error taxonomy. The endpoint contains only the path; the domain is fixed by the region.
func (m *Manager) send(ctx context.Context, method, endpoint string, payload interface{}, authed bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	url := fmt.Sprintf("https://%s/%s", m.host, endpoint)
	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &CommandError{Err: err, PossibleSuccess: false, PossibleTemporary: false}
	}
	request.Header.Set("User-Agent", m.UserAgent)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "*/*")
	if authed {
		request.Header.Set("Authorization", m.currentAuthHeader())
	}

	log.Debug("Sending %s request to %s", method, url)
	result, err := m.client.Do(request)
	if err != nil {
		return nil, &CommandError{Err: err, PossibleSuccess: false, PossibleTemporary: true}
	}
	defer result.Body.Close()

	reader := io.LimitedReader{R: result.Body, N: MaxResponseLength + 1}
	data, err := io.ReadAll(&reader)
	if err != nil {
		return nil, &CommandError{Err: err, PossibleSuccess: true, PossibleTemporary: false}
	}
	if len(data) == MaxResponseLength+1 {
		return nil, NewError("response exceeds maximum length", true, true)
	}

	log.Debug("Server returned %d: %s", result.StatusCode, http.StatusText(result.StatusCode))
	switch result.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusServiceUnavailable:
		return nil, ErrVehicleAsleep
	case http.StatusRequestTimeout:
		if bytes.Contains(data, []byte("vehicle is offline")) {
			return nil, ErrVehicleAsleep
		}
	}
	return nil, &HTTPError{Code: result.StatusCode, Message: string(data)}
}

// call sends an authenticated request, re-authenticating and retrying once if the server reports
// the session token is no longer valid.
func (m *Manager) call(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	if err := m.refreshIfStale(ctx); err != nil {
		return nil, err
	}
	data, err := m.send(ctx, method, endpoint, payload, true)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusUnauthorized {
		log.Info("Server invalidated session token; re-authenticating")
		if err := m.authenticate(ctx); err != nil {
			return nil, err
		}
		return m.send(ctx, method, endpoint, payload, true)
	}
	return data, err
}

// Vehicles returns the account's vehicle list.
func (m *Manager) Vehicles(ctx context.Context) ([]Vehicle, error) {
	data, err := m.call(ctx, http.MethodGet, "api/v1/spa/vehicles", nil)
	if err != nil {
		return nil, err
	}
	var rsp struct {
		Vehicles []Vehicle `json:"vehicles"`
	}
	if err := json.Unmarshal(data, &rsp); err != nil {
		return nil, &CommandError{Err: fmt.Errorf("unable to parse vehicle list: %w", err), PossibleSuccess: false, PossibleTemporary: false}
	}
	return rsp.Vehicles, nil
}

// Status returns a point-in-time state report for the vehicle.
func (m *Manager) Status(ctx context.Context, vehicleID string) (VehicleStatus, error) {
	var status VehicleStatus
	data, err := m.call(ctx, http.MethodGet, fmt.Sprintf("api/v1/spa/vehicles/%s/status", vehicleID), nil)
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return status, &CommandError{Err: fmt.Errorf("unable to parse status report: %w", err), PossibleSuccess: false, PossibleTemporary: false}
	}
	return status, nil
}

type commandResponse struct {
	Result bool   `json:"result"`
	Reason string `json:"reason"`
}

func (m *Manager) control(ctx context.Context, vehicleID, control string, payload interface{}) error {
	endpoint := fmt.Sprintf("api/v1/spa/vehicles/%s/control/%s", vehicleID, control)
	data, err := m.call(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	var rsp commandResponse
	if err := json.Unmarshal(data, &rsp); err != nil {
		return &CommandError{Err: fmt.Errorf("unable to parse command response: %w", err), PossibleSuccess: true, PossibleTemporary: false}
	}
	if !rsp.Result {
		return NewError("vehicle rejected command: "+rsp.Reason, false, false)
	}
	return nil
}

type doorRequest struct {
	Action string `json:"action"`
	PIN    string `json:"pin"`
}

// Lock locks the vehicle's doors.
func (m *Manager) Lock(ctx context.Context, vehicleID string) error {
	return m.control(ctx, vehicleID, "door", doorRequest{Action: "lock", PIN: m.creds.PIN})
}

// Unlock unlocks the vehicle's doors.
func (m *Manager) Unlock(ctx context.Context, vehicleID string) error {
	return m.control(ctx, vehicleID, "door", doorRequest{Action: "unlock", PIN: m.creds.PIN})
}

type climateRequest struct {
	Action string `json:"action"`
	PIN    string `json:"pin"`
	ClimateOptions
}

// StartClimate turns on climate control with the provided options.
func (m *Manager) StartClimate(ctx context.Context, vehicleID string, opts ClimateOptions) error {
	return m.control(ctx, vehicleID, "climate", climateRequest{Action: "start", PIN: m.creds.PIN, ClimateOptions: opts})
}

// StopClimate turns off climate control.
func (m *Manager) StopClimate(ctx context.Context, vehicleID string) error {
	return m.control(ctx, vehicleID, "climate", climateRequest{Action: "stop", PIN: m.creds.PIN})
}

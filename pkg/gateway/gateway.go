package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiaconnect/vehicle-gateway/pkg/cache"
	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

// DefaultTimeout bounds how long a single inbound request may spend on owner-API round trips.
const DefaultTimeout = 30 * time.Second

// Action identifies one of the commands the gateway is willing to forward.
type Action string

const (
	ActionLock         Action = "LOCK"
	ActionUnlock       Action = "UNLOCK"
	ActionStartClimate Action = "START_CLIMATE"
	ActionStopClimate  Action = "STOP_CLIMATE"
)

// ParseAction translates an inbound action name into an Action. Names are case-insensitive.
func ParseAction(name string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(name)))
	switch action {
	case ActionLock, ActionUnlock, ActionStartClimate, ActionStopClimate:
		return action, nil
	}
	return "", ErrUnsupportedAction
}

// Fleet is the capability the gateway uses to reach vehicles. *uvo.Manager satisfies it.
type Fleet interface {
	Vehicles(ctx context.Context) ([]uvo.Vehicle, error)
	Lock(ctx context.Context, vehicleID string) error
	Unlock(ctx context.Context, vehicleID string) error
	StartClimate(ctx context.Context, vehicleID string, opts uvo.ClimateOptions) error
	StopClimate(ctx context.Context, vehicleID string) error
	Status(ctx context.Context, vehicleID string) (uvo.VehicleStatus, error)
}

var (
	// ErrUnauthorized indicates the request's shared secret did not match. No vehicle is
	// contacted when this is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnsupportedAction indicates the requested action is not one the gateway forwards.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrVehicleNotFound indicates the configured target vehicle is not on the account.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrVehicleAmbiguous indicates the account has multiple vehicles and no target vehicle ID
	// is configured. The gateway refuses to guess rather than command the wrong vehicle.
	ErrVehicleAmbiguous = errors.New("account has multiple vehicles; configure a target vehicle ID")
)

// CommandError reports that the fleet capability rejected or failed a dispatched command. The
// underlying cause is attached unmodified.
type CommandError struct {
	Action    Action
	VehicleID string
	Err       error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed for vehicle %s: %s", e.Action, e.VehicleID, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Request is one inbound command trigger.
type Request struct {
	Action string
	Secret string
}

// Config collects everything a Gateway needs at construction time. There is no other
// configuration surface; in particular the gateway reads no ambient global state.
type Config struct {
	// Secret is the shared secret required on every inbound request.
	Secret string
	// TargetVehicleID selects the vehicle to command. If empty, AllowSingleVehicle must be set
	// and the account must hold exactly one vehicle.
	TargetVehicleID string
	// AllowSingleVehicle permits running without a TargetVehicleID on single-vehicle accounts.
	// This is an explicit deployment choice so that an account quietly gaining a second vehicle
	// turns into an error instead of commands going to an arbitrary one.
	AllowSingleVehicle bool
	// Climate is attached to START_CLIMATE commands. Zero fields fall back to the defaults
	// (72°F for 10 minutes).
	Climate uvo.ClimateOptions
	// Statuses, if non-nil, retains the last useful status report per vehicle so the status
	// endpoints can paper over the owner API's zero-range wakeup reports.
	Statuses *cache.StatusCache
}

// Gateway gates and dispatches vehicle commands. See the package documentation for the request
// pipeline. A Gateway is immutable after construction and safe for concurrent use, subject to
// the fleet capability's own concurrency guarantees.
type Gateway struct {
	// Timeout bounds the owner-API round trips made for one inbound request.
	Timeout time.Duration

	fleet    Fleet
	secret   []byte
	targetID string
	climate  uvo.ClimateOptions
	statuses *cache.StatusCache
}

// New validates cfg and returns a Gateway that dispatches through fleet.
func New(fleet Fleet, cfg Config) (*Gateway, error) {
	if fleet == nil {
		return nil, errors.New("no fleet capability provided")
	}
	if cfg.Secret == "" {
		return nil, errors.New("refusing to run without a shared secret")
	}
	if cfg.TargetVehicleID == "" && !cfg.AllowSingleVehicle {
		return nil, errors.New("no target vehicle ID configured; set one or explicitly allow single-vehicle mode")
	}
	if cfg.Climate.Temperature == 0 {
		cfg.Climate.Temperature = uvo.DefaultClimateTemperature
	}
	if cfg.Climate.Duration == 0 {
		cfg.Climate.Duration = uvo.DefaultClimateDuration
	}
	return &Gateway{
		Timeout:  DefaultTimeout,
		fleet:    fleet,
		secret:   []byte(cfg.Secret),
		targetID: cfg.TargetVehicleID,
		climate:  cfg.Climate,
		statuses: cfg.Statuses,
	}, nil
}

// ClimateOptions returns the settings attached to START_CLIMATE commands.
func (g *Gateway) ClimateOptions() uvo.ClimateOptions {
	return g.climate
}

// authorize compares the request secret in constant time so mismatch position is not observable
// through response latency.
func (g *Gateway) authorize(secret string) error {
	if subtle.ConstantTimeCompare([]byte(secret), g.secret) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// resolve selects the vehicle commands are sent to. With a configured target ID the account's
// list must contain a matching entry; without one the account must hold exactly one vehicle.
func (g *Gateway) resolve(ctx context.Context) (uvo.Vehicle, error) {
	vehicles, err := g.fleet.Vehicles(ctx)
	if err != nil {
		return uvo.Vehicle{}, fmt.Errorf("listing vehicles: %w", err)
	}
	if g.targetID != "" {
		for _, v := range vehicles {
			if v.ID == g.targetID {
				return v, nil
			}
		}
		return uvo.Vehicle{}, ErrVehicleNotFound
	}
	switch len(vehicles) {
	case 0:
		return uvo.Vehicle{}, ErrVehicleNotFound
	case 1:
		return vehicles[0], nil
	default:
		return uvo.Vehicle{}, ErrVehicleAmbiguous
	}
}

// Handle runs the authorize → resolve → dispatch pipeline for one request. A nil return means
// the fleet capability acknowledged the command. Failures are never retried here; reissuing is
// the caller's decision.
func (g *Gateway) Handle(ctx context.Context, req Request) error {
	if err := g.authorize(req.Secret); err != nil {
		return err
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		return err
	}
	vehicle, err := g.resolve(ctx)
	if err != nil {
		return err
	}

	switch action {
	case ActionLock:
		err = g.fleet.Lock(ctx, vehicle.ID)
	case ActionUnlock:
		err = g.fleet.Unlock(ctx, vehicle.ID)
	case ActionStartClimate:
		err = g.fleet.StartClimate(ctx, vehicle.ID, g.climate)
	case ActionStopClimate:
		err = g.fleet.StopClimate(ctx, vehicle.ID)
	}
	if err != nil {
		return &CommandError{Action: action, VehicleID: vehicle.ID, Err: err}
	}
	return nil
}

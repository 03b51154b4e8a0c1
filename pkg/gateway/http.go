package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kiaconnect/vehicle-gateway/internal/log"
	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

// Response contains the server's reply to a client request.
type Response struct {
	Response   interface{} `json:"response"`
	Error      string      `json:"error,omitempty"`
	ErrDetails string      `json:"error_description,omitempty"`
}

type commandResult struct {
	Result bool   `json:"result"`
	Reason string `json:"reason"`
}

type statusReport struct {
	VehicleID string `json:"vehicle_id"`
	Model     string `json:"model"`
	uvo.VehicleStatus
}

var commandRoutes = map[string]Action{
	"/lock_car":      ActionLock,
	"/unlock_car":    ActionUnlock,
	"/start_climate": ActionStartClimate,
	"/stop_climate":  ActionStopClimate,
}

func writeJSON(w http.ResponseWriter, code int, reply *Response) {
	jsonBytes, err := json.Marshal(reply)
	if err != nil {
		log.Error("Error serializing reply %+v: %s", reply, err)
		code = http.StatusInternalServerError
		jsonBytes = []byte("{\"error\": \"internal server error\"}")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	jsonBytes = append(jsonBytes, '\n')
	w.Write(jsonBytes)
}

func writeJSONError(w http.ResponseWriter, code int, err error) {
	reply := Response{}
	if err == nil {
		reply.Error = http.StatusText(code)
	} else {
		reply.Error = err.Error()
	}
	log.Error("Returning %s: %s", http.StatusText(code), reply.Error)
	writeJSON(w, code, &reply)
}

// errorStatus maps the gateway's error taxonomy onto HTTP status codes. Vendor-reported
// failures surface as gateway errors since this layer only relays them.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrUnsupportedAction):
		return http.StatusBadRequest
	case errors.Is(err, ErrVehicleNotFound), errors.Is(err, ErrVehicleAmbiguous):
		return http.StatusNotFound
	case uvo.Temporary(err):
		return http.StatusServiceUnavailable
	}
	var cmdErr *CommandError
	var httpErr *uvo.HTTPError
	if errors.As(err, &cmdErr) || errors.As(err, &httpErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// secretFromRequest extracts the shared secret from the Authorization header. A "Bearer" prefix
// is tolerated since many HTTP clients add one unasked.
func secretFromRequest(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if stripped, ok := strings.CutPrefix(header, "Bearer "); ok {
		return stripped
	}
	return header
}

// ServeHTTP exposes the gateway's commands and status lookups as a REST API. Command endpoints
// are POST-only; lookups are GET-only. Every endpoint except the root banner requires the
// shared secret in the Authorization header.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Info("Received %s request for %s", req.Method, req.URL.Path)

	ctx, cancel := context.WithTimeout(req.Context(), g.Timeout)
	defer cancel()

	if action, ok := commandRoutes[req.URL.Path]; ok {
		if req.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, nil)
			return
		}
		g.handleCommand(ctx, w, req, action)
		return
	}

	switch req.URL.Path {
	case "/":
		if req.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, nil)
			return
		}
		writeJSON(w, http.StatusOK, &Response{Response: "vehicle command gateway"})
	case "/list_vehicles":
		g.handleLookup(ctx, w, req, g.listVehicles)
	case "/get_vehicle_status":
		g.handleLookup(ctx, w, req, g.vehicleStatus)
	case "/battery_status":
		g.handleLookup(ctx, w, req, g.batteryStatus)
	default:
		writeJSONError(w, http.StatusNotFound, nil)
	}
}

func (g *Gateway) handleCommand(ctx context.Context, w http.ResponseWriter, req *http.Request, action Action) {
	err := g.Handle(ctx, Request{Action: string(action), Secret: secretFromRequest(req)})
	if err != nil {
		writeJSONError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, &Response{Response: &commandResult{Result: true}})
}

func (g *Gateway) handleLookup(ctx context.Context, w http.ResponseWriter, req *http.Request,
	lookup func(ctx context.Context) (interface{}, error)) {

	if req.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, nil)
		return
	}
	if err := g.authorize(secretFromRequest(req)); err != nil {
		writeJSONError(w, errorStatus(err), err)
		return
	}
	body, err := lookup(ctx)
	if err != nil {
		writeJSONError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, &Response{Response: body})
}

func (g *Gateway) listVehicles(ctx context.Context) (interface{}, error) {
	vehicles, err := g.fleet.Vehicles(ctx)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, ErrVehicleNotFound
	}
	return map[string]interface{}{"vehicles": vehicles}, nil
}

// vehicleStatus reports the resolved vehicle's state. The owner API reports a zero driving
// range while the telematics unit wakes up; when that happens the last report with a real range
// is substituted, if one is retained.
func (g *Gateway) vehicleStatus(ctx context.Context) (interface{}, error) {
	vehicle, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}
	status, err := g.fleet.Status(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	if g.statuses != nil {
		if status.Range > 0 {
			g.statuses.Update(vehicle.ID, status)
		} else if cached, ok := g.statuses.Get(vehicle.ID); ok {
			status.Range = cached.Range
		}
	}
	return &statusReport{VehicleID: vehicle.ID, Model: vehicle.Model, VehicleStatus: status}, nil
}

func (g *Gateway) batteryStatus(ctx context.Context) (interface{}, error) {
	vehicle, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}
	status, err := g.fleet.Status(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	return map[string]int{"battery_percentage": status.Battery}, nil
}

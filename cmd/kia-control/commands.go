package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

var (
	ErrUnknownCommand  = errors.New("unrecognized command")
	ErrCommandLineArgs = errors.New("invalid command line arguments")
)

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error

type Command struct {
	help     string
	args     []Argument
	optional []Argument
	handler  Handler
}

// GetTemperature parses a cabin temperature in degrees Fahrenheit. The Owner API rejects
// setpoints outside the head unit's range, so catch obviously bad values before sending.
func GetTemperature(tempStr string) (int, error) {
	temp, err := strconv.Atoi(tempStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrCommandLineArgs, err)
	}
	if temp < 62 || temp > 82 {
		return 0, fmt.Errorf("%w: temperature must be in the range [62, 82]", ErrCommandLineArgs)
	}
	return temp, nil
}

// GetDuration parses a climate run time in minutes.
func GetDuration(durationStr string) (int, error) {
	duration, err := strconv.Atoi(durationStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrCommandLineArgs, err)
	}
	if duration < 1 || duration > 30 {
		return 0, fmt.Errorf("%w: duration must be in the range [1, 30] minutes", ErrCommandLineArgs)
	}
	return duration, nil
}

// formatStatus renders a status report for the terminal. Range and odometer
// come back from the Owner API as fractional miles.
func formatStatus(status uvo.VehicleStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Battery:  %d%%\n", status.Battery)
	fmt.Fprintf(&b, "Range:    %.0f mi\n", status.Range)
	fmt.Fprintf(&b, "Charging: %t\n", status.Charging)
	if status.Charging {
		fmt.Fprintf(&b, "Time to full: %d min\n", status.ChargeMinutes)
	}
	fmt.Fprintf(&b, "Engine:   %t\n", status.EngineOn)
	fmt.Fprintf(&b, "Locked:   %t\n", status.DoorsLocked)
	fmt.Fprintf(&b, "Odometer: %.1f mi\n", status.Odometer)
	return b.String()
}

func execute(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, ok := commands[args[0]]
	if !ok {
		return ErrUnknownCommand
	}

	var err error
	if len(args)-1 < len(info.args) || len(args)-1 > len(info.args)+len(info.optional) {
		writeErr("Invalid number of command line arguments: %d (%d required, %d optional).", len(args)-1, len(info.args), len(info.optional))
		err = ErrCommandLineArgs
	} else {
		keywords := make(map[string]string)
		for i, argInfo := range info.args {
			keywords[argInfo.name] = args[i+1]
		}
		index := len(info.args) + 1
		for _, argInfo := range info.optional {
			if index >= len(args) {
				break
			}
			keywords[argInfo.name] = args[index]
			index++
		}
		err = info.handler(ctx, fleet, car, keywords)
	}

	// Print command-specific help
	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

var commands = map[string]*Command{
	"list": &Command{
		help: "List the vehicles on the account",
		handler: func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error {
			vehicles, err := fleet.Vehicles(ctx)
			if err != nil {
				return err
			}
			for _, v := range vehicles {
				marker := " "
				if v.ID == car.ID {
					marker = "*"
				}
				fmt.Printf("%s %s\t%d %s\t%s\n", marker, v.ID, v.Year, v.Model, v.VIN)
			}
			return nil
		},
	},
	"lock": &Command{
		help: "Lock the vehicle's doors",
		handler: func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error {
			return fleet.Lock(ctx, car.ID)
		},
	},
	"unlock": &Command{
		help: "Unlock the vehicle's doors",
		handler: func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error {
			return fleet.Unlock(ctx, car.ID)
		},
	},
	"climate-start": &Command{
		help: "Start preconditioning the cabin",
		optional: []Argument{
			Argument{name: "TEMP", help: "Cabin temperature setpoint in degrees Fahrenheit (default 72)"},
			Argument{name: "MINUTES", help: "Run time in minutes (default 10)"},
		},
		handler: func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error {
			options := uvo.DefaultClimateOptions()
			var err error
			if tempStr, ok := args["TEMP"]; ok {
				if options.Temperature, err = GetTemperature(tempStr); err != nil {
					return err
				}
			}
			if durationStr, ok := args["MINUTES"]; ok {
				if options.Duration, err = GetDuration(durationStr); err != nil {
					return err
				}
			}
			return fleet.StartClimate(ctx, car.ID, options)
		},
	},
	"climate-stop": &Command{
		help: "Stop preconditioning the cabin",
		handler: func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error {
			return fleet.StopClimate(ctx, car.ID)
		},
	},
	"status": &Command{
		help: "Print the vehicle's last reported status",
		handler: func(ctx context.Context, fleet *uvo.Manager, car uvo.Vehicle, args map[string]string) error {
			status, err := fleet.Status(ctx, car.ID)
			if err != nil {
				return err
			}
			fmt.Print(formatStatus(status))
			return nil
		},
	},
}

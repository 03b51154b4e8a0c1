package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/kiaconnect/vehicle-gateway/internal/log"
	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * Credentials are read from KIA_USERNAME, KIA_PASSWORD, and KIA_PIN, from the
   system keyring (with -keyring), or prompted for interactively.
 * Run with no COMMAND to start an interactive shell.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] [COMMAND [ARG...]]\n", os.Args[0])
	fmt.Printf("\nRun %s -help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(fleet *uvo.Manager, car uvo.Vehicle, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, fleet, car, args); err != nil {
		if uvo.MayHaveSucceeded(err) {
			writeErr("Couldn't verify success: %s", err)
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(fleet *uvo.Manager, car uvo.Vehicle, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		runCommand(fleet, car, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

// pickVehicle mirrors the gateway's resolution rule: an explicit ID must match, and without one
// the account must hold exactly one vehicle.
func pickVehicle(vehicles []uvo.Vehicle, vehicleID string) (uvo.Vehicle, error) {
	if vehicleID != "" {
		for _, v := range vehicles {
			if v.ID == vehicleID {
				return v, nil
			}
		}
		return uvo.Vehicle{}, fmt.Errorf("vehicle %s is not on this account (try the 'list' command)", vehicleID)
	}
	switch len(vehicles) {
	case 0:
		return uvo.Vehicle{}, fmt.Errorf("no vehicles on this account")
	case 1:
		return vehicles[0], nil
	default:
		return uvo.Vehicle{}, fmt.Errorf("account has %d vehicles; select one with -vehicle-id", len(vehicles))
	}
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		regionCode     int
		username       string
		vehicleID      string
		useKeyring     bool
		commandTimeout time.Duration
		connTimeout    time.Duration
	)
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.IntVar(&regionCode, "region", 0, "Owner API region `code` (1 = Europe, 2 = Canada, 3 = USA, 4 = China, 5 = Australia)")
	flag.StringVar(&username, "username", "", "Account `email` address")
	flag.StringVar(&vehicleID, "vehicle-id", "", "Send commands to the vehicle with this `ID`")
	flag.BoolVar(&useKeyring, "keyring", false, "Load (and store) the account password and PIN in the system keyring")
	flag.DurationVar(&commandTimeout, "command-timeout", 30*time.Second, "Set timeout for commands sent to the vehicle.")
	flag.DurationVar(&connTimeout, "connect-timeout", 30*time.Second, "Set timeout for authentication and vehicle discovery.")
	flag.Parse()

	if !debug {
		if debugEnv, ok := os.LookupEnv("GATEWAY_VERBOSE"); ok {
			debug = debugEnv != "false" && debugEnv != "0"
		}
	}
	if debug {
		log.SetLevel(log.LevelDebug)
	}

	args := flag.Args()
	if len(args) > 0 && args[0] == "help" {
		if len(args) == 1 {
			Usage()
			status = 0
			return
		}
		info, ok := commands[args[1]]
		if !ok {
			writeErr("Unrecognized command: %s", args[1])
			return
		}
		info.Usage(args[1])
		status = 0
		return
	}

	creds, err := loadCredentials(username, regionCode, useKeyring)
	if err != nil {
		writeErr("Error loading credentials: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	fleet, err := uvo.Login(ctx, creds)
	if err != nil {
		writeErr("Error: %s", err)
		return
	}

	if vehicleID == "" {
		vehicleID = os.Getenv("VEHICLE_ID")
	}
	vehicles, err := fleet.Vehicles(ctx)
	if err != nil {
		writeErr("Error listing vehicles: %s", err)
		return
	}
	car, err := pickVehicle(vehicles, vehicleID)
	if err != nil {
		writeErr("Error: %s", err)
		return
	}

	if len(args) > 0 {
		status = runCommand(fleet, car, args, commandTimeout)
	} else {
		status = runInteractiveShell(fleet, car, commandTimeout)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kiaconnect/vehicle-gateway/internal/log"
	"github.com/kiaconnect/vehicle-gateway/pkg/cache"
	"github.com/kiaconnect/vehicle-gateway/pkg/gateway"
	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

const (
	defaultPort     = 8080
	statusCacheSize = 10 // Number of vehicles tracked in the status cache
	startupTimeout  = 30 * time.Second
)

const (
	EnvHost        = "GATEWAY_HOST"
	EnvPort        = "GATEWAY_PORT"
	EnvTimeout     = "GATEWAY_TIMEOUT"
	EnvVerbose     = "GATEWAY_VERBOSE"
	EnvTLSCert     = "GATEWAY_TLS_CERT"
	EnvTLSKey      = "GATEWAY_TLS_KEY"
	EnvStatusCache = "GATEWAY_STATUS_CACHE"
)

const nonLocalhostWarning = `
Do not listen on a network interface without TLS and a strong shared secret. Anyone who can reach
this server and guess the secret can unlock your car.`

type HTTPConfig struct {
	host            string
	port            int
	verbose         bool
	timeout         time.Duration
	certFilename    string
	keyFilename     string
	selfSigned      bool
	statusCacheFile string
}

// accountConfig is populated exclusively from environment variables so credentials and the
// shared secret never appear on the command line or in the process table.
type accountConfig struct {
	Username           string `env:"KIA_USERNAME,notEmpty"`
	Password           string `env:"KIA_PASSWORD,notEmpty"`
	PIN                string `env:"KIA_PIN,notEmpty"`
	RegionCode         int    `env:"KIA_REGION" envDefault:"3"`
	Secret             string `env:"GATEWAY_SECRET,notEmpty"`
	VehicleID          string `env:"VEHICLE_ID"`
	AllowSingleVehicle bool   `env:"ALLOW_SINGLE_VEHICLE"`
	ClimateTemp        int    `env:"CLIMATE_TEMP" envDefault:"72"`
	ClimateDuration    int    `env:"CLIMATE_DURATION" envDefault:"10"`
}

var httpConfig = &HTTPConfig{}

func init() {
	flag.StringVar(&httpConfig.host, "host", "localhost", "Server `hostname`")
	flag.IntVar(&httpConfig.port, "port", defaultPort, "`Port` to listen on")
	flag.BoolVar(&httpConfig.verbose, "verbose", false, "Enable verbose logging")
	flag.DurationVar(&httpConfig.timeout, "timeout", gateway.DefaultTimeout, "Timeout interval when sending commands")
	flag.StringVar(&httpConfig.certFilename, "cert", "", "TLS certificate chain `file` with concatenated server, intermediate CA, and root CA certificates")
	flag.StringVar(&httpConfig.keyFilename, "tls-key", "", "Server TLS private key `file`")
	flag.BoolVar(&httpConfig.selfSigned, "self-signed", false, "Serve TLS with an ephemeral self-signed certificate, written to -cert (or stdout) for clients to install")
	flag.StringVar(&httpConfig.statusCacheFile, "status-cache", "", "Load and save the last-known vehicle status to `file`")
}

func Usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [OPTION...]\n", os.Args[0])
	fmt.Fprintf(out, "\nA server that exposes Kia vehicle commands as secret-gated HTTP endpoints")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, nonLocalhostWarning)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Account credentials are read from KIA_USERNAME, KIA_PASSWORD, KIA_PIN, and")
	fmt.Fprintln(out, "KIA_REGION; the shared secret from GATEWAY_SECRET; the target vehicle from")
	fmt.Fprintln(out, "VEHICLE_ID (or ALLOW_SINGLE_VEHICLE=true for single-vehicle accounts).")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
}

// readFromEnvironment applies configuration from environment variables.
// Values set on the command line are not overwritten.
func readFromEnvironment() error {
	if httpConfig.host == "localhost" {
		if host, ok := os.LookupEnv(EnvHost); ok {
			httpConfig.host = host
		}
	}

	if httpConfig.certFilename == "" {
		httpConfig.certFilename = os.Getenv(EnvTLSCert)
	}

	if httpConfig.keyFilename == "" {
		httpConfig.keyFilename = os.Getenv(EnvTLSKey)
	}

	if httpConfig.statusCacheFile == "" {
		httpConfig.statusCacheFile = os.Getenv(EnvStatusCache)
	}

	if !httpConfig.verbose {
		if verbose, ok := os.LookupEnv(EnvVerbose); ok {
			httpConfig.verbose = verbose != "false" && verbose != "0"
		}
	}

	var err error
	if httpConfig.port == defaultPort {
		if port, ok := os.LookupEnv(EnvPort); ok {
			httpConfig.port, err = strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid port: %s", port)
			}
		}
	}

	if httpConfig.timeout == gateway.DefaultTimeout {
		if timeoutEnv, ok := os.LookupEnv(EnvTimeout); ok {
			httpConfig.timeout, err = time.ParseDuration(timeoutEnv)
			if err != nil {
				return fmt.Errorf("invalid timeout: %s", timeoutEnv)
			}
		}
	}

	return nil
}

func loadStatusCache(filename string) *cache.StatusCache {
	if filename == "" {
		return cache.New(statusCacheSize)
	}
	statuses, err := cache.ImportFromFile(filename)
	if err != nil {
		log.Warning("Starting with an empty status cache: %s", err)
		return cache.New(statusCacheSize)
	}
	log.Info("Loaded status cache from %s", filename)
	return statuses
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}()

	flag.Usage = Usage
	flag.Parse()
	if err = readFromEnvironment(); err != nil {
		return
	}

	if httpConfig.verbose {
		log.SetLevel(log.LevelDebug)
	}

	if httpConfig.host != "localhost" {
		fmt.Fprintln(os.Stderr, nonLocalhostWarning)
	}

	var account accountConfig
	if err = env.Parse(&account); err != nil {
		return
	}

	region, err := uvo.ParseRegion(account.RegionCode)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	log.Info("Authenticating with the %s owner API...", region)
	fleet, err := uvo.Login(ctx, uvo.Credentials{
		Username: account.Username,
		Password: account.Password,
		PIN:      account.PIN,
		Region:   region,
	})
	if err != nil {
		return
	}

	vehicles, err := fleet.Vehicles(ctx)
	if err != nil {
		return
	}
	log.Info("Connected; account has %d vehicle(s)", len(vehicles))
	for _, v := range vehicles {
		log.Info("Vehicle %s: %s %d %s", v.ID, v.Name, v.Year, v.Model)
	}

	statuses := loadStatusCache(httpConfig.statusCacheFile)

	gw, err := gateway.New(fleet, gateway.Config{
		Secret:             account.Secret,
		TargetVehicleID:    account.VehicleID,
		AllowSingleVehicle: account.AllowSingleVehicle,
		Climate: uvo.ClimateOptions{
			Temperature: account.ClimateTemp,
			Duration:    account.ClimateDuration,
		},
		Statuses: statuses,
	})
	if err != nil {
		return
	}
	gw.Timeout = httpConfig.timeout

	if httpConfig.statusCacheFile != "" {
		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-interrupts
			if err := statuses.ExportToFile(httpConfig.statusCacheFile); err != nil {
				log.Error("Failed to save status cache: %s", err)
			}
			os.Exit(0)
		}()
	}

	addr := fmt.Sprintf("%s:%d", httpConfig.host, httpConfig.port)
	log.Info("Listening on %s", addr)

	switch {
	case httpConfig.selfSigned:
		server, certPEM := NewServer(addr)
		server.Handler = gw
		if err := saveCertificate(httpConfig.certFilename, certPEM); err != nil {
			log.Error("Failed to save certificate: %s", err)
			return
		}
		log.Error("Server stopped: %s", server.ListenAndServeTLS("", ""))
	case httpConfig.certFilename != "" && httpConfig.keyFilename != "":
		log.Error("Server stopped: %s", http.ListenAndServeTLS(addr, httpConfig.certFilename, httpConfig.keyFilename, gw))
	default:
		log.Error("Server stopped: %s", http.ListenAndServe(addr, gw))
	}
}

/*
Package uvo implements a client for the Kia UVO owner API used to enumerate
and command vehicles on a connected-services account.

The entry point is [Login], which authenticates with account credentials and
returns a [Manager]. The Manager transparently refreshes its access token when
it expires, so a single Manager can be held for the lifetime of a process.
*/
package uvo

// Region selects the owner-API deployment serving a connected-services account.
// Accounts are registered in exactly one region; commands sent through the
// wrong region's deployment fail authentication.
type Region int

const (
	RegionEurope Region = iota + 1
	RegionCanada
	RegionUSA
	RegionChina
	RegionAustralia
)

// RegionDefault is used when a deployment does not specify a region.
const RegionDefault = RegionUSA

var regionNames = map[Region]string{
	RegionEurope:    "EUROPE",
	RegionCanada:    "CANADA",
	RegionUSA:       "USA",
	RegionChina:     "CHINA",
	RegionAustralia: "AUSTRALIA",
}

var regionHosts = map[Region]string{
	RegionEurope:    "prd.eu-ccapi.kia.com",
	RegionCanada:    "api.owners.kia.ca",
	RegionUSA:       "api.owners.kia.com",
	RegionChina:     "prd.cn-ccapi.kia.cn",
	RegionAustralia: "au-apigw.ccs.kia.com.au",
}

// ParseRegion translates a numeric region code (as used in account
// configuration) into a Region. Zero maps to RegionDefault.
func ParseRegion(code int) (Region, error) {
	if code == 0 {
		return RegionDefault, nil
	}
	r := Region(code)
	if _, ok := regionNames[r]; !ok {
		return RegionDefault, &CommandError{Err: errUnknownRegion(code), PossibleSuccess: false, PossibleTemporary: false}
	}
	return r, nil
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// Host returns the owner-API domain for the region.
func (r Region) Host() string {
	if host, ok := regionHosts[r]; ok {
		return host
	}
	return regionHosts[RegionDefault]
}

// Credentials identify a connected-services account. All fields except Region
// are required. Credentials are only held in memory; they are never persisted
// by this package.
type Credentials struct {
	Username string
	Password string
	PIN      string
	Region   Region
}

// ClimateOptions configure a remote climate-control start request.
type ClimateOptions struct {
	// Temperature is the target cabin temperature in degrees Fahrenheit.
	Temperature int `json:"temperature"`
	// Duration is how long, in minutes, climate control runs before shutting
	// itself off.
	Duration      int  `json:"duration"`
	Defrost       bool `json:"defrost"`
	Heating       bool `json:"heating"`
	SteeringWheel bool `json:"steeringWheel"`
}

const (
	DefaultClimateTemperature = 72 // °F
	DefaultClimateDuration    = 10 // minutes
)

// DefaultClimateOptions returns the climate settings used when a deployment
// does not configure its own.
func DefaultClimateOptions() ClimateOptions {
	return ClimateOptions{
		Temperature: DefaultClimateTemperature,
		Duration:    DefaultClimateDuration,
	}
}

// Vehicle describes one entry on an account's vehicle list.
type Vehicle struct {
	ID    string `json:"id"`
	VIN   string `json:"vin"`
	Name  string `json:"name"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// VehicleStatus is a point-in-time state report. Fields the vehicle does not
// support (for example EV fields on a combustion model) are zero.
type VehicleStatus struct {
	Battery       int     `json:"batteryPercentage"`
	Range         float64 `json:"drivingRangeMiles"`
	Charging      bool    `json:"charging"`
	ChargeMinutes int     `json:"estimatedChargeMinutes"`
	EngineOn      bool    `json:"engineOn"`
	DoorsLocked   bool    `json:"doorsLocked"`
	Odometer      float64 `json:"odometerMiles"`
}

package cache

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

// Entry is one vehicle's retained status report.
type Entry struct {
	Status    uvo.VehicleStatus `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StatusCache holds the last useful status report for up to MaxEntries vehicles. Entries beyond
// the limit are evicted oldest-first, where age is the time of a vehicle's most recent update.
//
// Set MaxEntries to zero for an unbounded cache.
type StatusCache struct {
	MaxEntries int
	Vehicles   map[string]Entry `json:"vehicles"`
	lock       sync.Mutex
}

// New returns an empty StatusCache bounded to maxEntries vehicles.
func New(maxEntries int) *StatusCache {
	return &StatusCache{
		MaxEntries: maxEntries,
		Vehicles:   make(map[string]Entry),
	}
}

// Import reads a StatusCache previously written with [StatusCache.Export] from r.
func Import(r io.Reader) (*StatusCache, error) {
	var c StatusCache
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&c); err != nil {
		return nil, err
	}
	if c.Vehicles == nil {
		c.Vehicles = make(map[string]Entry)
	}
	return &c, nil
}

// ImportFromFile reads a StatusCache from disk.
func ImportFromFile(filename string) (*StatusCache, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Import(file)
}

// Export writes a serialized StatusCache to w.
func (c *StatusCache) Export(w io.Writer) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return json.NewEncoder(w).Encode(c)
}

// ExportToFile writes a StatusCache to disk.
func (c *StatusCache) ExportToFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.Export(file)
}

// Update replaces the cache's entry for vehicleID. Callers should only store reports worth
// substituting later; reports with placeholder values belong to the caller's filtering logic,
// not the cache's.
func (c *StatusCache) Update(vehicleID string, status uvo.VehicleStatus) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.Vehicles[vehicleID] = Entry{Status: status, UpdatedAt: time.Now()}
	if c.MaxEntries > 0 && len(c.Vehicles) > c.MaxEntries {
		oldestID := vehicleID
		oldestUpdate := time.Now().Add(time.Minute)
		for id, entry := range c.Vehicles {
			if entry.UpdatedAt.Before(oldestUpdate) {
				oldestID = id
				oldestUpdate = entry.UpdatedAt
			}
		}
		delete(c.Vehicles, oldestID)
	}
}

// Get returns the retained status report for vehicleID, if any.
func (c *StatusCache) Get(vehicleID string) (uvo.VehicleStatus, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.Vehicles[vehicleID]
	return entry.Status, ok
}

// Package cache retains the most recent useful status report for each vehicle.
//
// The owner API occasionally returns placeholder values while a vehicle's telematics unit is
// waking up; in particular the driving range is reported as zero. A [StatusCache] lets callers
// substitute the last report that contained a real range so automation clients are not shown a
// car that suddenly claims zero miles of range.
//
// A StatusCache can be exported to disk so the substitute values survive process restarts. The
// cached data describes vehicle state, not credentials, but access controls on the exported file
// are still recommended.
package cache

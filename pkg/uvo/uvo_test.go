package uvo

import (
	"testing"
)

func TestParseRegion(t *testing.T) {
	type params struct {
		code   int
		region Region
		isErr  bool
	}
	testCases := []params{
		{code: 0, region: RegionUSA},
		{code: 1, region: RegionEurope},
		{code: 2, region: RegionCanada},
		{code: 3, region: RegionUSA},
		{code: 4, region: RegionChina},
		{code: 5, region: RegionAustralia},
		{code: 6, isErr: true},
		{code: -1, isErr: true},
		{code: 100, isErr: true},
	}
	for _, test := range testCases {
		region, err := ParseRegion(test.code)
		if (err != nil) != test.isErr {
			t.Errorf("ParseRegion(%d) gave unexpected err = %s", test.code, err)
		} else if !test.isErr && region != test.region {
			t.Errorf("ParseRegion(%d) = %s, expected %s", test.code, region, test.region)
		}
	}
}

func TestRegionHosts(t *testing.T) {
	for region := range regionNames {
		if region.Host() == "" {
			t.Errorf("region %s has no API host", region)
		}
	}
	if Region(42).Host() != RegionDefault.Host() {
		t.Error("unknown region did not fall back to the default host")
	}
	if Region(42).String() != "UNKNOWN" {
		t.Error("unknown region did not stringify as UNKNOWN")
	}
}

func TestDefaultClimateOptions(t *testing.T) {
	opts := DefaultClimateOptions()
	if opts.Temperature != 72 {
		t.Errorf("default temperature = %d, expected 72", opts.Temperature)
	}
	if opts.Duration != 10 {
		t.Errorf("default duration = %d, expected 10", opts.Duration)
	}
	if opts.Defrost || opts.Heating || opts.SteeringWheel {
		t.Error("default options enabled an accessory")
	}
}

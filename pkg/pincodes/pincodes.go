package pincodes

import (
	"regexp"
	"strconv"
)

// Gorakhpur city and surrounding tehsil ranges served by our own riders.
// Everything else goes out through the carrier.
var localRanges = []struct{ lo, hi int }{
	{273001, 273020},
	{273401, 273410},
}

var pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// IsValid reports whether the value is a well-formed Indian pincode.
func IsValid(pincode string) bool {
	return pincodeRe.MatchString(pincode)
}

// IsLocal reports whether the destination pincode is inside the self-delivery
// zone.
func IsLocal(pincode string) bool {
	if !IsValid(pincode) {
		return false
	}
	n, err := strconv.Atoi(pincode)
	if err != nil {
		return false
	}
	for _, r := range localRanges {
		if n >= r.lo && n <= r.hi {
			return true
		}
	}
	return false
}

package rehydrator

import (
	"errors"
	"net/netip"
	"time"
)

// datetimeLayout is the wire representation of datetime values,
// e.g. "Jan 02 2020 03:04:05".
const datetimeLayout = "Jan 02 2006 15:04:05"

const timezoneUTC = "UTC"

// rehydrateDatetime converts a datetime-tagged mapping into a time.Time.
// The value is parsed as wall-clock time in the location named by the
// timezone key; a missing or empty timezone means UTC.
func rehydrateDatetime(doc Document) (time.Time, error) {
	raw, ok := doc[KeyValue].(string)
	if !ok {
		return time.Time{}, ErrInvalidDatetimeValue
	}

	location := time.UTC

	if tz, hasTZ := doc[KeyTimezone].(string); hasTZ && tz != "" && tz != timezoneUTC {
		loaded, loadErr := time.LoadLocation(tz)
		if loadErr != nil {
			return time.Time{}, errors.Join(ErrUnknownTimezone, loadErr)
		}

		location = loaded
	}

	parsed, parseErr := time.ParseInLocation(datetimeLayout, raw, location)
	if parseErr != nil {
		return time.Time{}, errors.Join(ErrInvalidDatetimeValue, parseErr)
	}

	return parsed, nil
}

// rehydrateIPNetwork converts an ip-network-tagged mapping into a
// netip.Prefix, e.g. "10.0.0.0/24".
func rehydrateIPNetwork(doc Document) (netip.Prefix, error) {
	raw, ok := doc[KeyValue].(string)
	if !ok {
		return netip.Prefix{}, ErrInvalidNetworkValue
	}

	prefix, parseErr := netip.ParsePrefix(raw)
	if parseErr != nil {
		return netip.Prefix{}, errors.Join(ErrInvalidNetworkValue, parseErr)
	}

	return prefix, nil
}

// isHandlerError reports whether an error originated in one of the strategy
// handlers. Handler failures are suppressed per field during population;
// everything else, store failures in particular, stays fatal.
func isHandlerError(err error) bool {
	return errors.Is(err, ErrInvalidDatetimeValue) ||
		errors.Is(err, ErrUnknownTimezone) ||
		errors.Is(err, ErrInvalidNetworkValue)
}

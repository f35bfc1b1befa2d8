package booking

import "strings"

// Parameter names, including the aliases seen across agent configurations.
const (
	ParamDate          = "date"
	ParamStartTime     = "startTime"
	ParamEndTime       = "endTime"
	ParamSummary       = "summary"
	ParamStart         = "start"
	ParamEnd           = "end"
	ParamAttendeeEmail = "attendeeEmail"
	ParamEmail         = "email"
	ParamDescription   = "description"
)

// stringParam returns the first non-empty value among keys. Agents send
// absent parameters as "" or null, so both count as missing.
func stringParam(params map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		raw, ok := params[key]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return "", invalid("parameter %s must be a string, got %T", key, raw)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
	return "", nil
}

// stringParams resolves several parameters, stopping at the first malformed one.
func stringParams(params map[string]any, groups ...[]string) ([]string, error) {
	out := make([]string, len(groups))
	for i, keys := range groups {
		v, err := stringParam(params, keys...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func keys(k ...string) []string { return k }

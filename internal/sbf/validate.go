package sbf

import "fmt"

// crossCheck compares one header entry with the payload field it repeats.
type crossCheck struct {
	key     string
	header  func(*Header) (string, bool)
	payload func(*Payload) (string, bool)
}

var crossChecks = []crossCheck{
	{
		key: KeyPoints,
		header: func(h *Header) (string, bool) {
			v, ok := h.Points()
			return formatFloat(v), ok
		},
		payload: func(p *Payload) (string, bool) {
			return formatFloat(float64(p.PointCount)), true
		},
	},
	{
		key: KeySFCount,
		header: func(h *Header) (string, bool) {
			v, ok := h.SFCount()
			return formatFloat(v), ok
		},
		payload: func(p *Payload) (string, bool) {
			return formatFloat(float64(p.ScalarFieldCount)), true
		},
	},
	{
		key: KeyGlobalShift,
		header: func(h *Header) (string, bool) {
			v, ok := h.GlobalShift()
			return formatVec3(v), ok
		},
		payload: func(p *Payload) (string, bool) {
			return formatVec3(p.GlobalShift), true
		},
	},
}

func formatVec3(v Vec3) string {
	return fmt.Sprintf("%s, %s, %s", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
}

// CrossValidate compares the entries the header repeats from the payload
// header and reports every disagreement as a Warning. The payload is the
// source of truth, so nothing here is fatal.
func CrossValidate(h *Header, p *Payload, path string) []Warning {
	var warnings []Warning
	warn := func(key, format string, args ...interface{}) {
		warnings = append(warnings, Warning{Path: path, Key: key, Message: fmt.Sprintf(format, args...)})
	}

	for _, c := range crossChecks {
		hv, ok := c.header(h)
		if !ok {
			warn(c.key, "header missing entry")
			continue
		}
		pv, ok := c.payload(p)
		if !ok {
			warn(c.key, "payload missing entry")
			continue
		}
		// Both sides go through the same shortest round-trip formatting,
		// so equal strings mean equal float64 values.
		if hv != pv {
			warn(c.key, "header says %s, payload says %s", hv, pv)
		}
	}

	fields := h.ScalarFields()
	if len(fields) > 0 && len(fields) != int(p.ScalarFieldCount) {
		warn("", "header names %d scalar fields, payload holds %d", len(fields), p.ScalarFieldCount)
	}
	for i, f := range fields {
		if f.Index != i+1 {
			warn(fmt.Sprintf("SF%d", f.Index), "scalar field records are not numbered 1..%d", len(fields))
			break
		}
	}
	return warnings
}

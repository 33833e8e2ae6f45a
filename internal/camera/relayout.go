package camera

import (
	"encoding/json"
	"strconv"
	"strings"
)

const relayoutPrefix = "scene.camera"

// FromRelayout extracts a camera update from a web front-end relayout
// payload. Both the nested form {"scene.camera": {"eye": {"x": 1}}} and the
// flat form {"scene.camera.eye.x": 1} are accepted. Keys outside
// eye/center/up/projection are ignored. ok is false when the payload
// carries no camera data.
func FromRelayout(payload map[string]any) (upd Update, ok bool) {
	for key, val := range payload {
		if !strings.HasPrefix(key, relayoutPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, relayoutPrefix)
		switch {
		case rest == "":
			nested, isMap := val.(map[string]any)
			if !isMap {
				continue
			}
			for k, v := range nested {
				ok = applyPath(&upd, strings.Split(k, "."), v) || ok
			}
		case strings.HasPrefix(rest, "."):
			ok = applyPath(&upd, strings.Split(rest[1:], "."), val) || ok
		}
	}
	return upd, ok
}

func applyPath(upd *Update, path []string, val any) bool {
	if len(path) == 0 {
		return false
	}

	if path[0] == "projection" {
		if len(path) == 1 {
			if m, isMap := val.(map[string]any); isMap {
				val = m["type"]
			}
		} else if len(path) != 2 || path[1] != "type" {
			return false
		}
		s, isStr := val.(string)
		if !isStr || s == "" {
			return false
		}
		upd.Projection = s
		return true
	}

	var vec *Vector
	switch path[0] {
	case "eye":
		vec = &upd.Eye
	case "center":
		vec = &upd.Center
	case "up":
		vec = &upd.Up
	default:
		return false
	}

	if len(path) == 1 {
		m, isMap := val.(map[string]any)
		if !isMap {
			return false
		}
		set := false
		for axis, v := range m {
			set = setAxis(vec, axis, v) || set
		}
		return set
	}
	if len(path) == 2 {
		return setAxis(vec, path[1], val)
	}
	return false
}

func setAxis(vec *Vector, axis string, val any) bool {
	f, isNum := number(val)
	if !isNum {
		return false
	}
	switch axis {
	case "x":
		vec.X = ptr(f)
	case "y":
		vec.Y = ptr(f)
	case "z":
		vec.Z = ptr(f)
	default:
		return false
	}
	return true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

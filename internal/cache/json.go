package cache

import "encoding/json"

// GetJSON decodes a cached JSON value into T. An undecodable entry is deleted
// and reported as a miss.
func GetJSON[T any](c Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.Delete(key)
		var zero T
		return zero, false
	}
	return out, true
}

// SetJSON stores value encoded as JSON.
func SetJSON[T any](c Cache, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.Set(key, raw)
	return nil
}

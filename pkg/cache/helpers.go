package cache

import (
	"context"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key joins parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

func GetString(ctx context.Context, c Client, key string) (string, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func SetString(ctx context.Context, c Client, key, value string, ttl time.Duration) error {
	return c.Set(ctx, key, []byte(value), ttl)
}

func marshalJSON(key string, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &Error{Operation: "serialize", Key: key, Err: err}
	}
	return data, nil
}

func unmarshalJSON(key string, data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return &Error{Operation: "deserialize", Key: key, Err: err}
	}
	return nil
}

package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving duration configuration values.
//
// Values are stored as plain integers; the unit is implied by the getter.
type TimeConfig interface {
	// GetMillisecond retrieves the value for key as milliseconds.
	GetMillisecond(key string) time.Duration

	// GetSecond retrieves the value for key as seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value for key as minutes.
	GetMinute(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations of this interface should handle the retrieval and type conversion
// of configuration data, returning the zero value when a key is missing.
type Config interface {
	io.Closer
	TimeConfig

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetInt64 retrieves the value for key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetBinary retrieves the value for key as a byte slice.
	// Configuration value is stored as base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the value for key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	// Empty elements are dropped.
	GetArray(key string) []string

	// GetMap retrieves the value for key as a map of strings to strings.
	// Configuration value is stored with format <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string
}

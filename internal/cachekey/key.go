package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// Separator joins the namespace and each encoded parameter.
	Separator = ":"

	// maxParamsLength is the longest parameter segment kept verbatim.
	maxParamsLength = 200

	hashedParamName = "h"
)

var paramNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ConfigurationError reports a programming error at a call site: an empty
// namespace, a malformed parameter name, or a non-scalar value.
type ConfigurationError struct {
	Namespace string
	Param     string
	Reason    string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("cache key configuration error for namespace %q: %s", e.Namespace, e.Reason)
	}
	return fmt.Sprintf("cache key configuration error for namespace %q, param %q: %s",
		e.Namespace, e.Param, e.Reason)
}

// Params are the named inputs that identify one cached computation.
type Params map[string]any

// GenerateKey returns the canonical key for namespace and params. It is a
// pure function: equal inputs always produce equal keys.
func GenerateKey(namespace string, params Params) (string, error) {
	if strings.TrimSpace(namespace) == "" {
		return "", &ConfigurationError{Namespace: namespace, Reason: "namespace cannot be empty"}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if !paramNamePattern.MatchString(name) {
			return "", &ConfigurationError{Namespace: namespace, Param: name, Reason: "invalid parameter name"}
		}
		value, present, err := encodeValue(params[name])
		if err != nil {
			return "", &ConfigurationError{Namespace: namespace, Param: name, Reason: err.Error()}
		}
		if !present {
			continue
		}
		parts = append(parts, name+"="+url.QueryEscape(value))
	}

	if len(parts) == 0 {
		return namespace, nil
	}

	encoded := strings.Join(parts, Separator)
	if len(encoded) > maxParamsLength {
		sum := sha256.Sum256([]byte(encoded))
		encoded = hashedParamName + "=" + hex.EncodeToString(sum[:])
	}
	return namespace + Separator + encoded, nil
}

// MustGenerateKey is GenerateKey for call sites whose inputs are fixed at
// compile time.
func MustGenerateKey(namespace string, params Params) string {
	key, err := GenerateKey(namespace, params)
	if err != nil {
		// ALLOW-PANIC: static key definitions are a programming error
		panic(err)
	}
	return key
}

// encodeValue stringifies a scalar. present is false for absent values.
func encodeValue(v any) (value string, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, x != "", nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint64:
		return strconv.FormatUint(x, 10), true, nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true, nil
	case uuid.UUID:
		return x.String(), x != uuid.Nil, nil
	default:
		return "", false, fmt.Errorf("unsupported non-scalar value of type %T", v)
	}
}

package cache

import (
	"fmt"
	"strings"
)

// Key names one cached resource: a resource family plus optional parameters.
// Keys are comparable and safe to use as map keys.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a key from a resource name and parameters. Parameters are
// formatted with %v and joined with "/".
func NewKey(resource string, params ...any) Key {
	if len(params) == 0 {
		return Key{Resource: resource}
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return Key{Resource: resource, Params: strings.Join(parts, "/")}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "/" + k.Params
}

// Target selects the keys an invalidation applies to.
type Target struct {
	key   Key
	exact bool
}

// Resource targets every key of a resource family regardless of parameters.
func Resource(name string) Target {
	return Target{key: Key{Resource: name}}
}

// Exact targets a single key.
func Exact(k Key) Target {
	return Target{key: k, exact: true}
}

func (t Target) Matches(k Key) bool {
	if t.exact {
		return t.key == k
	}
	return t.key.Resource == k.Resource
}

func (t Target) String() string {
	if t.exact {
		return t.key.String()
	}
	return t.key.Resource + "/*"
}

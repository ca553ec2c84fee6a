/*
Copyright 2026 The TNFS Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Obj is a parsed JSON configuration object, adapted from perkeep's
// pkg/jsonconfig.Obj: accessors accumulate errors on a per-Obj list
// instead of returning one immediately, so every key can be read in a
// single pass; Validate then reports the first error on that list.
type Obj struct {
	m    map[string]any
	errs []error
}

// ReadJSONFile parses path as a single JSON object.
func ReadJSONFile(path string) (*Obj, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("tnfsd: parsing %s: %w", path, err)
	}
	return &Obj{m: m}, nil
}

// Validate returns the first accumulated error, if any, from the
// accessor calls made so far.
func (o *Obj) Validate() error {
	if len(o.errs) == 0 {
		return nil
	}
	return o.errs[0]
}

func (o *Obj) appendError(err error) { o.errs = append(o.errs, err) }

// OptionalString returns key's string value, or def if key is absent.
func (o *Obj) OptionalString(key, def string) string {
	v, ok := o.m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		o.appendError(fmt.Errorf("tnfsd: config key %q must be a string", key))
		return def
	}
	return s
}

// RequiredString returns key's string value, recording an error if
// absent or of the wrong type.
func (o *Obj) RequiredString(key string) string {
	v, ok := o.m[key]
	if !ok {
		o.appendError(fmt.Errorf("tnfsd: missing required config key %q", key))
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.appendError(fmt.Errorf("tnfsd: config key %q must be a string", key))
		return ""
	}
	return s
}

// OptionalBool returns key's bool value, or def if key is absent.
func (o *Obj) OptionalBool(key string, def bool) bool {
	v, ok := o.m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		o.appendError(fmt.Errorf("tnfsd: config key %q must be a bool", key))
		return def
	}
	return b
}

// OptionalInt returns key's integer value, or def if key is absent.
// JSON numbers decode as float64; a non-integral value is an error.
func (o *Obj) OptionalInt(key string, def int) int {
	v, ok := o.m[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		o.appendError(fmt.Errorf("tnfsd: config key %q must be an integer", key))
		return def
	}
	return int(f)
}

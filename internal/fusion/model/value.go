/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package model

import (
	"strconv"
	"strings"
)

// ValueKind discriminates the attribute variant.
type ValueKind int

const (
	Absent ValueKind = iota
	Scalar
	List
)

// Value is one attribute value: a scalar string, a string list, or absent.
type Value struct {
	kind   ValueKind
	scalar string
	list   []string
}

// NoValue is the absent attribute value.
var NoValue = Value{}

// ScalarValue creates a scalar attribute value.
func ScalarValue(s string) Value {
	return Value{kind: Scalar, scalar: s}
}

// ListValue creates a multi-valued attribute value.
func ListValue(items ...string) Value {
	return Value{kind: List, list: items}
}

// Kind returns the variant of the value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsEmpty reports whether the value is absent, a blank scalar, or a list
// with no non-blank entries.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case Scalar:
		return strings.TrimSpace(v.scalar) == ""
	case List:
		for _, item := range v.list {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// First returns the scalar value, or the first non-blank list entry.
func (v Value) First() string {
	switch v.kind {
	case Scalar:
		return v.scalar
	case List:
		for _, item := range v.list {
			if strings.TrimSpace(item) != "" {
				return item
			}
		}
	}
	return ""
}

// List returns every value as a slice. A scalar becomes a one-entry slice.
func (v Value) List() []string {
	switch v.kind {
	case Scalar:
		if v.scalar == "" {
			return nil
		}
		return []string{v.scalar}
	case List:
		return v.list
	default:
		return nil
	}
}

// FromRaw converts a decoded JSON attribute value into a Value. Numbers
// and booleans are rendered as their canonical string form; nested
// structures are dropped.
func FromRaw(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return NoValue
	case string:
		return ScalarValue(v)
	case bool:
		return ScalarValue(strconv.FormatBool(v))
	case float64:
		return ScalarValue(strconv.FormatFloat(v, 'f', -1, 64))
	case []string:
		return ListValue(v...)
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if entry := FromRaw(item); !entry.IsEmpty() {
				items = append(items, entry.First())
			}
		}
		return ListValue(items...)
	default:
		return NoValue
	}
}

// AttributeBag is a dynamic string-keyed attribute mapping, used for both
// source and fusion account attributes.
type AttributeBag map[string]Value

// BagFromRaw converts a decoded JSON attribute map into a bag, dropping
// entries that carry no representable value.
func BagFromRaw(raw map[string]interface{}) AttributeBag {
	bag := make(AttributeBag, len(raw))
	for name, value := range raw {
		if v := FromRaw(value); !v.IsEmpty() {
			bag[name] = v
		}
	}
	return bag
}

// Get looks the name up exactly, then falls back to a case-insensitive
// match. Source systems disagree on attribute-name casing.
func (b AttributeBag) Get(name string) Value {
	if v, ok := b[name]; ok {
		return v
	}
	lower := strings.ToLower(name)
	for key, v := range b {
		if strings.ToLower(key) == lower {
			return v
		}
	}
	return NoValue
}

// FirstNonEmpty returns the first non-empty value among the named
// attributes, in order.
func (b AttributeBag) FirstNonEmpty(names ...string) Value {
	for _, name := range names {
		if v := b.Get(name); !v.IsEmpty() {
			return v
		}
	}
	return NoValue
}

// Clone copies the bag shallowly; Value is immutable so entries are safe
// to share.
func (b AttributeBag) Clone() AttributeBag {
	out := make(AttributeBag, len(b))
	for key, v := range b {
		out[key] = v
	}
	return out
}

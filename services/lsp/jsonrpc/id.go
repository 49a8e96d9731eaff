// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ID identifies one in-flight request. JSON-RPC allows either an integer or
// a string; the variant the peer chose is preserved so a response echoes
// exactly what the request carried.
//
// ID is comparable and can be used as a map key. IntID(1) and StringID("1")
// are different IDs.
type ID struct {
	num   int64
	str   string
	isStr bool
}

// IntID returns an integer request ID.
func IntID(n int64) ID {
	return ID{num: n}
}

// StringID returns a string request ID.
func StringID(s string) ID {
	return ID{str: s, isStr: true}
}

// IsString reports whether the ID is the string variant.
func (id ID) IsString() bool {
	return id.isStr
}

// Int returns the integer value and true for integer IDs.
func (id ID) Int() (int64, bool) {
	return id.num, !id.isStr
}

// Str returns the string value and true for string IDs.
func (id ID) Str() (string, bool) {
	return id.str, id.isStr
}

// String renders the ID for logs: 7 or "abc".
func (id ID) String() string {
	if id.isStr {
		return strconv.Quote(id.str)
	}
	return strconv.FormatInt(id.num, 10)
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isStr {
		return json.Marshal(id.str)
	}
	return []byte(strconv.FormatInt(id.num, 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
//
// Numbers must be integral; 3.0 is accepted as 3 but 3.5 is rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty request id")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string id: %w", err)
		}
		*id = StringID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("request id must be an integer or string, got %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*id = IntID(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return fmt.Errorf("request id must be an integer or string, got %s", data)
	}
	*id = IntID(int64(f))
	return nil
}

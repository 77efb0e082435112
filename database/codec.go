/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tomoncle/litedb/types"
)

// DatetimeLayout is the storage format for datetime columns: date plus
// time with microsecond precision, no zone designator. Values are stored
// in UTC.
const DatetimeLayout = "2006-01-02 15:04:05.000000"

// Codec converts between a native value and its storage representation.
type Codec struct {
	Encode func(v interface{}) (interface{}, error)
	Decode func(stored interface{}) (interface{}, error)
}

// CodecRegistry maps declared type tags to codecs. Each DB handle owns a
// registry; there is no process-wide converter state.
type CodecRegistry struct {
	codecs map[TypeTag]Codec
}

// DefaultCodecs returns a registry with the built-in codecs: bool as
// integer 0/1, datetime as formatted text, json as JSON text. Text,
// integer, real, and blob values pass through unchanged.
func DefaultCodecs() *CodecRegistry {
	r := &CodecRegistry{codecs: map[TypeTag]Codec{}}
	r.Register(TypeBool, Codec{Encode: encodeBool, Decode: decodeBool})
	r.Register(TypeDatetime, Codec{Encode: encodeDatetime, Decode: decodeDatetime})
	r.Register(TypeJSON, Codec{Encode: encodeJSON, Decode: decodeJSON})
	return r
}

// Register binds a codec to a type tag, replacing any previous binding.
func (r *CodecRegistry) Register(tag TypeTag, codec Codec) {
	r.codecs[tag] = codec
}

// Lookup returns the codec bound to the tag.
func (r *CodecRegistry) Lookup(tag TypeTag) (Codec, bool) {
	c, ok := r.codecs[tag]
	return c, ok
}

// EncodeValue converts a bound argument to its storage representation
// based on its native Go type. Unregistered native types pass through to
// the driver unchanged.
func (r *CodecRegistry) EncodeValue(v interface{}) (interface{}, error) {
	switch v.(type) {
	case bool:
		if c, ok := r.codecs[TypeBool]; ok {
			return c.Encode(v)
		}
	case time.Time, *time.Time:
		if c, ok := r.codecs[TypeDatetime]; ok {
			return c.Encode(v)
		}
	case types.JsonObject, types.JsonArray:
		if c, ok := r.codecs[TypeJSON]; ok {
			return c.Encode(v)
		}
	}
	return v, nil
}

// EncodeValues encodes a full argument list in place order.
func (r *CodecRegistry) EncodeValues(vals []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		enc, err := r.EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode argument %d: %w", i, err)
		}
		out[i] = enc
	}
	return out, nil
}

// DecodeColumn converts a stored value back to its native representation
// using the column's declared type tag. Columns without a registered
// codec, and NULLs, pass through unchanged.
func (r *CodecRegistry) DecodeColumn(tag TypeTag, stored interface{}) (interface{}, error) {
	if stored == nil {
		return nil, nil
	}
	c, ok := r.codecs[tag]
	if !ok {
		return stored, nil
	}
	return c.Decode(stored)
}

func encodeBool(v interface{}) (interface{}, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("bool codec: cannot encode %T", v)
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func decodeBool(stored interface{}) (interface{}, error) {
	switch n := stored.(type) {
	case int64:
		return n != 0, nil
	case int:
		return n != 0, nil
	case bool:
		return n, nil
	default:
		return nil, fmt.Errorf("bool codec: cannot decode %T", stored)
	}
}

func encodeDatetime(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(DatetimeLayout), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC().Format(DatetimeLayout), nil
	default:
		return nil, fmt.Errorf("datetime codec: cannot encode %T", v)
	}
}

func decodeDatetime(stored interface{}) (interface{}, error) {
	var s string
	switch v := stored.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		return v, nil
	default:
		return nil, fmt.Errorf("datetime codec: cannot decode %T", stored)
	}
	t, err := time.ParseInLocation(DatetimeLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("datetime codec: malformed stored value %q: %w", s, err)
	}
	return t, nil
}

func encodeJSON(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: %w", err)
	}
	return string(data), nil
}

func decodeJSON(stored interface{}) (interface{}, error) {
	var data []byte
	switch v := stored.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return nil, fmt.Errorf("json codec: cannot decode %T", stored)
	}
	var obj types.JsonObject
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj, nil
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("json codec: malformed stored value: %w", err)
	}
	return generic, nil
}

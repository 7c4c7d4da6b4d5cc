package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Marshal encodes a dictionary as a JSON object keyed by the decimal field key,
// e.g. {"0":5,"1":0,"3":"5278"}
func Marshal(d Dict) ([]byte, error) {
	obj := make(map[string]any, len(d))
	for key, v := range d {
		obj[strconv.FormatUint(uint64(key), 10)] = v
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", d.TypeName(), err)
	}
	return data, nil
}

// Unmarshal decodes the JSON form produced by Marshal. Integer fields are
// narrowed to the width the schema declares when they fit; values that do not
// fit are kept as json.Number so Decode can report them.
func Unmarshal(data []byte) (Dict, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("failed to decode message: not an object")
	}

	d := make(Dict, len(obj))
	for rawKey, v := range obj {
		n, err := strconv.ParseUint(rawKey, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to decode message: invalid key %q", rawKey)
		}
		key := Key(n)
		d[key] = normalize(key, v)
	}
	return d, nil
}

func normalize(key Key, v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	i, err := num.Int64()
	if err != nil {
		return v
	}

	k, known := keyKinds[key]
	if !known {
		return v
	}
	switch k {
	case kindUint8:
		if i >= 0 && i <= math.MaxUint8 {
			return uint8(i)
		}
	case kindUint16:
		if i >= 0 && i <= math.MaxUint16 {
			return uint16(i)
		}
	}
	return v
}

package otai

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectKey renders the "<type>:<id>" key naming an object.
func ObjectKey(ot ObjectType, id ObjectID) string {
	return string(ot) + ":" + id.String()
}

// SplitObjectKey inverts ObjectKey.
func SplitObjectKey(key string) (ObjectType, ObjectID, error) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("otai.SplitObjectKey: malformed key %q", key)
	}
	id, err := ParseObjectID(key[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("otai.SplitObjectKey: %w", err)
	}
	return ObjectType(key[:i]), id, nil
}

// SerializeValue renders a native attribute value as text.
func SerializeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case ObjectID:
		return x.String()
	case []ObjectID:
		if x == nil {
			return "0:null"
		}
		parts := make([]string, len(x))
		for i, id := range x {
			parts[i] = id.String()
		}
		return serializeList(len(x), parts)
	case []int32:
		if x == nil {
			return "0:null"
		}
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(int64(n), 10)
		}
		return serializeList(len(x), parts)
	case []uint32:
		if x == nil {
			return "0:null"
		}
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatUint(uint64(n), 10)
		}
		return serializeList(len(x), parts)
	case S32List:
		return SerializeS32List(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func serializeList(count int, parts []string) string {
	return strconv.Itoa(count) + ":" + strings.Join(parts, ",")
}

// SerializeS32List renders "<count>:<v1>,<v2>,...", or "<count>:null" for
// a list without a buffer (a capacity-only query).
func SerializeS32List(l S32List) string {
	if l.List == nil {
		return strconv.FormatUint(uint64(l.Count), 10) + ":null"
	}
	parts := make([]string, len(l.List))
	for i, n := range l.List {
		parts[i] = strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatUint(uint64(l.Count), 10) + ":" + strings.Join(parts, ",")
}

// ParseS32List inverts SerializeS32List.
func ParseS32List(s string) (S32List, error) {
	countStr, rest, ok := strings.Cut(s, ":")
	if !ok {
		return S32List{}, fmt.Errorf("otai.ParseS32List: missing count in %q", s)
	}
	count, err := strconv.ParseUint(countStr, 10, 32)
	if err != nil {
		return S32List{}, fmt.Errorf("otai.ParseS32List: count: %w", err)
	}
	l := S32List{Count: uint32(count)}
	if rest == "null" {
		return l, nil
	}
	l.List = []int32{}
	if rest == "" {
		return l, nil
	}
	for _, p := range strings.Split(rest, ",") {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return S32List{}, fmt.Errorf("otai.ParseS32List: value %q: %w", p, err)
		}
		l.List = append(l.List, int32(n))
	}
	return l, nil
}

// SerializeAttribute renders one attribute as a field/value pair.
func SerializeAttribute(a Attribute) FieldValue {
	return FieldValue{Field: string(a.ID), Value: SerializeValue(a.Value)}
}

// SerializeAttributes renders an attribute list, preserving order.
func SerializeAttributes(attrs []Attribute) []FieldValue {
	out := make([]FieldValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, SerializeAttribute(a))
	}
	return out
}

// SerializeAttrIDs renders attribute ids as fields with empty values, the
// shape of a get request without value buffers.
func SerializeAttrIDs(ids []AttrID) []FieldValue {
	out := make([]FieldValue, 0, len(ids))
	for _, id := range ids {
		out = append(out, FieldValue{Field: string(id)})
	}
	return out
}

// SerializeStatIDs renders counter ids as fields with empty values.
func SerializeStatIDs(ids []StatID) []FieldValue {
	out := make([]FieldValue, 0, len(ids))
	for _, id := range ids {
		out = append(out, FieldValue{Field: string(id)})
	}
	return out
}

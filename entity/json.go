package entity

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// MarshalJSON encodes the entity as a JSON object with fields in order.
func (e Entity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (e *Entity) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalJSON encodes v. Date-times become RFC 3339 strings and enum labels
// become their "Type.Name" text.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes any JSON document into a value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("entity: invalid JSON")
	}
	*v = fromResult(gjson.ParseBytes(data))
	return nil
}

// ParseJSON decodes a JSON object into an entity. A JSON document that is not
// an object is returned as a single value under PrimitiveKey.
func ParseJSON(data []byte) (Entity, error) {
	if !gjson.ValidBytes(data) {
		return Entity{}, errors.New("entity: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return Single(fromResult(res)), nil
	}
	rec, _ := fromResult(res).AsRecord()
	return rec, nil
}

func fromResult(res gjson.Result) Value {
	switch res.Type {
	case gjson.Null:
		return Null()
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.String:
		return String(res.Str)
	case gjson.Number:
		if !strings.ContainsAny(res.Raw, ".eE") {
			return Int(res.Int())
		}
		return Double(res.Num)
	}

	if res.IsArray() {
		var items []Value
		res.ForEach(func(_, item gjson.Result) bool {
			items = append(items, fromResult(item))
			return true
		})
		return Value{kind: KindList, list: items}
	}

	var fields []Field
	res.ForEach(func(key, item gjson.Result) bool {
		fields = append(fields, F(key.String(), fromResult(item)))
		return true
	})
	return Record(New(fields...))
}

func (e Entity) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	first := true
	for name, value := range e.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := value.encode(buf); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	var (
		b   []byte
		err error
	)
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindString:
		b, err = json.Marshal(v.str)
	case KindInt:
		b, err = json.Marshal(v.num)
	case KindDouble:
		b, err = json.Marshal(v.dbl)
	case KindBool:
		b, err = json.Marshal(v.b)
	case KindDateTime:
		b, err = v.dt.MarshalJSON()
	case KindEnum:
		b, err = json.Marshal(v.enum.String())
	case KindRecord:
		return v.rec.encode(buf)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	}
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ===========================
// Document 自由格式資料
// ===========================

// ValueKind 值的類型標籤
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueArray
	ValueObject
)

// Value 自由格式欄位的值（tagged union）
type Value struct {
	kind   ValueKind
	b      bool
	n      float64
	s      string
	array  []Value
	object *Document
}

// NullValue 空值
func NullValue() Value { return Value{kind: ValueNull} }

// BoolValue 布林值
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// NumberValue 數值
func NumberValue(n float64) Value { return Value{kind: ValueNumber, n: n} }

// StringValue 字串值
func StringValue(s string) Value { return Value{kind: ValueString, s: s} }

// ArrayValue 陣列值
func ArrayValue(items ...Value) Value { return Value{kind: ValueArray, array: items} }

// ObjectValue 物件值
func ObjectValue(doc *Document) Value { return Value{kind: ValueObject, object: doc} }

// Kind 返回類型標籤
func (v Value) Kind() ValueKind { return v.kind }

// AsBool 返回布林值
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == ValueBool }

// AsNumber 返回數值
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == ValueNumber }

// AsString 返回字串值
func (v Value) AsString() (string, bool) { return v.s, v.kind == ValueString }

// AsArray 返回陣列
func (v Value) AsArray() ([]Value, bool) { return v.array, v.kind == ValueArray }

// AsObject 返回物件
func (v Value) AsObject() (*Document, bool) { return v.object, v.kind == ValueObject }

// MarshalJSON 序列化
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueBool:
		return json.Marshal(v.b)
	case ValueNumber:
		return json.Marshal(v.n)
	case ValueString:
		return json.Marshal(v.s)
	case ValueArray:
		if v.array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.array)
	case ValueObject:
		if v.object == nil {
			return []byte("{}"), nil
		}
		return v.object.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON 反序列化（保留物件鍵順序）
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type field struct {
	key   string
	value Value
}

// Document 有序的字串鍵映射
//
// 保留插入順序，回傳給外部客戶端時欄位順序不變。
type Document struct {
	fields []field
	index  map[string]int
}

// NewDocument 建立空文件
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// Set 設定欄位（已存在的鍵保留原位置）
func (d *Document) Set(key string, value Value) *Document {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.fields[i].value = value
		return d
	}
	d.index[key] = len(d.fields)
	d.fields = append(d.fields, field{key: key, value: value})
	return d
}

// Get 取得欄位
func (d *Document) Get(key string) (Value, bool) {
	if d == nil || d.index == nil {
		return Value{}, false
	}
	i, ok := d.index[key]
	if !ok {
		return Value{}, false
	}
	return d.fields[i].value, true
}

// Keys 依插入順序返回所有鍵
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.fields))
	for i, f := range d.fields {
		keys[i] = f.key
	}
	return keys
}

// Len 欄位數量
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

// Merge 將 other 的欄位依序寫入 d
func (d *Document) Merge(other *Document) *Document {
	if other == nil {
		return d
	}
	for _, f := range other.fields {
		d.Set(f.key, f.value)
	}
	return d
}

// MarshalJSON 序列化（依插入順序輸出）
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 反序列化（保留鍵順序）
func (d *Document) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	obj, ok := v.AsObject()
	if !ok {
		if v.Kind() == ValueNull {
			*d = *NewDocument()
			return nil
		}
		return fmt.Errorf("document must be a JSON object")
	}
	*d = *obj
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			doc := NewDocument()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				doc.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(doc), nil
		case '[':
			items := make([]Value, 0)
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ArrayValue(items...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)
	case bool:
		return BoolValue(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return NumberValue(n), nil
	case string:
		return StringValue(t), nil
	case nil:
		return NullValue(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"

	"gorm.io/gorm/schema"
)

// TextJSONSerializerName is the gorm serializer tag for JSON columns that are
// searched as text.
const TextJSONSerializerName = "textjson"

func init() {
	schema.RegisterSerializer(TextJSONSerializerName, TextJSONSerializer{})
}

// MarshalText encodes v as JSON without HTML escaping, so "&", "<" and ">"
// are stored as typed and a LIKE over the column text finds them.
func MarshalText(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// TextJSONSerializer stores a field as unescaped JSON text. Reads accept
// anything gorm's json serializer accepts, including escaped legacy rows.
type TextJSONSerializer struct{}

// Scan implements schema.SerializerInterface.
func (TextJSONSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue any) error {
	return schema.JSONSerializer{}.Scan(ctx, field, dst, dbValue)
}

// Value implements schema.SerializerInterface.
func (TextJSONSerializer) Value(_ context.Context, field *schema.Field, _ reflect.Value, fieldValue any) (any, error) {
	result, err := MarshalText(fieldValue)
	if err != nil {
		return nil, err
	}
	if string(result) == "null" {
		if field.TagSettings["NOT NULL"] != "" {
			return "", nil
		}
		return nil, nil
	}
	return string(result), nil
}

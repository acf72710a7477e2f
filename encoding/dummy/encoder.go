package dummy

import (
	"encoding/json"
)

type Stringer interface {
	String() string
}

type Unmarshaler interface {
	Unmarshal(bs []byte) error
}

// Encoder passes text through unchanged. String-like values are used as is,
// anything else falls back to JSON.
type Encoder struct{}

func NewEncoder() *Encoder {
	return new(Encoder)
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case Stringer:
		return []byte(t.String()), nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case *string:
		return []byte(*t), nil
	case *[]byte:
		return *t, nil
	default:
		return json.Marshal(v)
	}
}

func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	switch t := ret.(type) {
	case Unmarshaler:
		return t.Unmarshal(bs)
	case *string:
		*t = string(bs)
		return nil
	case *[]byte:
		*t = bs
		return nil
	default:
		return json.Unmarshal(bs, ret)
	}
}

func (e *Encoder) Validate(req any) error {
	return nil
}

func (e *Encoder) GetFormatInstructions() string {
	return ""
}

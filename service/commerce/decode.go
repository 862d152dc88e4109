package commerce

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
)

// decodeLenient decodes JSON into out through mapstructure so that numbers
// sent as strings ("1200") and nulls still land in typed fields.
func decodeLenient(body []byte, out interface{}) error {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}
	return decodeValue(raw, out)
}

func decodeValue(raw, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

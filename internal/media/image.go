package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodedImage is a still frame in a transport-ready encoding.
type EncodedImage struct {
	MIMEType string
	Data     []byte
}

func (e EncodedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(e.Data)
}

func (e EncodedImage) DataURI() string {
	return "data:" + e.MIMEType + ";base64," + e.Base64()
}

func (e EncodedImage) Empty() bool {
	return len(e.Data) == 0
}

// ParseDataURI decodes a base64 data URI such as the backend's image_data.
func ParseDataURI(s string) (EncodedImage, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return EncodedImage{}, fmt.Errorf("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return EncodedImage{}, fmt.Errorf("data uri without payload")
	}
	mime, isB64 := strings.CutSuffix(meta, ";base64")
	if !isB64 {
		return EncodedImage{}, fmt.Errorf("data uri is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("decode data uri: %w", err)
	}
	return EncodedImage{MIMEType: mime, Data: data}, nil
}

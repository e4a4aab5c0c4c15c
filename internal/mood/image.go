package mood

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI is returned for photo payloads that are not base64 data URIs.
var ErrInvalidDataURI = errors.New("photo must be a base64 data URI")

// Image is an inline image payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// ParseDataURI decodes "data:<mimetype>;base64,<encoded_data>".
// Only the envelope is checked; the bytes are not inspected as an image.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return Image{}, ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Image{}, ErrInvalidDataURI
	}

	return Image{MIMEType: mimeType, Data: data}, nil
}

// DataURI encodes the image in the form accepted by ParseDataURI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// dataURIPrefix is stripped from uploaded payloads before decoding.
const dataURIPrefix = "data:application/pdf;base64,"

// ErrEmptyPayload is returned by DecodePayload for a blank payload.
var ErrEmptyPayload = errors.New("empty PDF payload")

// DecodePayload decodes a PDF sent as a data URI or raw base64.
func DecodePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, dataURIPrefix)
	if s == "" {
		return nil, ErrEmptyPayload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some encoders omit padding.
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// EncodePayload returns pdf as a data URI, the form DecodePayload accepts.
func EncodePayload(data []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data)
}

// Info describes a PDF without reading its text.
type Info struct {
	Pages int
}

// Inspect reads the PDF structure to report its page count. Text is never
// read here; the gateway does all content reading.
func Inspect(data []byte) (info Info, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Info{}, errors.New("missing PDF header")
	}
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("reading PDF structure: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("reading PDF structure: %w", err)
	}
	return Info{Pages: r.NumPage()}, nil
}

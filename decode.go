package actionclient

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"mime"
	"strings"

	"github.com/ansel1/merry"
	"github.com/beevik/etree"
)

// Submit decodes response bodies with a Decoder, chosen per client.  If
// not set, clients fall back on DefaultDecoder, which chooses a format from
// the response's Content-Type header:
//
//     application/json, text/json, */*+json   -> interface{} via encoding/json
//     application/xml, text/xml, */*+xml      -> *etree.Document
//     anything else                           -> []byte, unchanged
//
// Response.Unmarshal uses an Unmarshaler instead, which decodes into
// a caller supplied value.

// DefaultDecoder is used by clients which don't configure a Decoder.
// nolint:gochecknoglobals
var DefaultDecoder Decoder = &ContentDecoder{}

// DefaultUnmarshaler is used by Response.Unmarshal.
// nolint:gochecknoglobals
var DefaultUnmarshaler Unmarshaler = &MultiUnmarshaler{}

// Decoder turns a raw response body into a value, given the response's
// Content-Type header.
type Decoder interface {
	Decode(contentType string, data []byte) (interface{}, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(contentType string, data []byte) (interface{}, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(contentType string, data []byte) (interface{}, error) {
	return f(contentType, data)
}

// Apply implements Option.  A DecoderFunc installs itself as the client's
// Decoder.
func (f DecoderFunc) Apply(d *Defaults) error {
	d.Decoder = f
	return nil
}

type bodyFormat int

const (
	formatRaw bodyFormat = iota
	formatJSON
	formatXML
)

func formatOf(contentType string) bodyFormat {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// malformed header: guess from its text
		mt = strings.ToLower(contentType)
		switch {
		case strings.Contains(mt, "json"):
			return formatJSON
		case strings.Contains(mt, "xml"):
			return formatXML
		}
		return formatRaw
	}
	switch {
	case mt == MediaTypeJSON, mt == "text/json", strings.HasSuffix(mt, "+json"):
		return formatJSON
	case mt == MediaTypeXML, mt == "text/xml", strings.HasSuffix(mt, "+xml"):
		return formatXML
	}
	return formatRaw
}

// ContentDecoder implements Decoder.  It's the DefaultDecoder.
//
// Empty bodies decode to nil, whatever the content type.  Malformed JSON or
// XML returns an error for which IsDecodeError is true.
type ContentDecoder struct {
	// UseNumber decodes JSON numbers as json.Number rather than float64.
	UseNumber bool
}

// Decode implements Decoder.
func (c *ContentDecoder) Decode(contentType string, data []byte) (interface{}, error) {
	f := formatOf(contentType)
	if f != formatRaw && len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	switch f {
	case formatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if c.UseNumber {
			dec.UseNumber()
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, decodeError(err, contentType)
		}
		// only whitespace may follow the top-level value
		if _, err := dec.Token(); err != io.EOF {
			return nil, decodeError(merry.New("unexpected data after top-level value"), contentType)
		}
		return v, nil
	case formatXML:
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(data); err != nil {
			return nil, decodeError(err, contentType)
		}
		if err := wellFormed(doc); err != nil {
			return nil, decodeError(err, contentType)
		}
		return doc, nil
	}
	return data, nil
}

// wellFormed checks what etree lets through: a document needs exactly one
// root element, and no text outside it.
func wellFormed(doc *etree.Document) error {
	switch n := len(doc.ChildElements()); n {
	case 0:
		return merry.New("document has no root element")
	case 1:
	default:
		return merry.Errorf("document has %d root elements", n)
	}
	for _, tok := range doc.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return merry.Errorf("unexpected text outside the root element: %q", cd.Data)
		}
	}
	return nil
}

// Apply implements Option.
func (c *ContentDecoder) Apply(d *Defaults) error {
	d.Decoder = c
	return nil
}

// Unmarshaler unmarshals a []byte response body into a value.  It is provided
// the value of the Content-Type header from the response.
type Unmarshaler interface {
	Unmarshal(data []byte, contentType string, v interface{}) error
}

// UnmarshalFunc adapts a function to the Unmarshaler interface.
type UnmarshalFunc func(data []byte, contentType string, v interface{}) error

// Unmarshal implements the Unmarshaler interface.
func (f UnmarshalFunc) Unmarshal(data []byte, contentType string, v interface{}) error {
	return f(data, contentType, v)
}

// JSONUnmarshaler implements Unmarshaler with encoding/json.
type JSONUnmarshaler struct{}

// Unmarshal implements Unmarshaler.
func (*JSONUnmarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	return merry.Wrap(json.Unmarshal(data, v))
}

// XMLUnmarshaler implements Unmarshaler with encoding/xml.
type XMLUnmarshaler struct{}

// Unmarshal implements Unmarshaler.
func (*XMLUnmarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	return merry.Wrap(xml.Unmarshal(data, v))
}

// MultiUnmarshaler implements Unmarshaler.  It uses the value of the Content-Type header in the
// response to choose between the JSON and XML unmarshalers.  If Content-Type is something else,
// an error is returned.
type MultiUnmarshaler struct {
	jsonMar JSONUnmarshaler
	xmlMar  XMLUnmarshaler
}

// Unmarshal implements Unmarshaler.
func (m *MultiUnmarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	switch formatOf(contentType) {
	case formatJSON:
		return m.jsonMar.Unmarshal(data, contentType, v)
	case formatXML:
		return m.xmlMar.Unmarshal(data, contentType, v)
	}
	return merry.Errorf("unsupported content type: %s", contentType)
}

package actionclient

import (
	"github.com/ansel1/merry"
)

var (
	// ErrConfiguration is the root of errors caused by an invalid client or
	// action configuration, e.g. passing both Path and URL to one action.
	// These are raised before any rendering, middleware, or network activity.
	//
	//     if merry.Is(err, actionclient.ErrConfiguration) { ... }
	ErrConfiguration = merry.New("invalid configuration")

	// ErrTemplateNotFound is returned by TemplateResolver.Find when no
	// template exists for an action.  It is not an error for the caller of
	// an action: the request is built with an empty body.
	ErrTemplateNotFound = merry.New("template not found")

	// ErrUnknownAdapter is returned by Submit when the client's Adapter
	// names an adapter which was never registered.
	ErrUnknownAdapter = merry.Append(ErrConfiguration, "unknown adapter")
)

type errKey int

const (
	errKeyDecode errKey = iota
)

func configError(msg string) error {
	return merry.Here(merry.Append(ErrConfiguration, msg))
}

func configErrorf(format string, args ...interface{}) error {
	return merry.Here(merry.Appendf(ErrConfiguration, format, args...))
}

func decodeError(err error, contentType string) error {
	return merry.Prependf(err, "decoding %s response body", contentType).
		WithValue(errKeyDecode, contentType)
}

// IsDecodeError reports whether err was raised while decoding a response
// body.
func IsDecodeError(err error) bool {
	return merry.Value(err, errKeyDecode) != nil
}

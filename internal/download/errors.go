package download

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/willie68/go_slippymap/internal/mercator"
)

var (
	// ErrResultDropped the tile was downloaded but the result queue was full
	ErrResultDropped = errors.New("result dropped, queue full")
	// ErrBodyTooLarge the response exceeds the tile size limit
	ErrBodyTooLarge = errors.New("tile body too large")
)

// ErrorKind classifies why a tile could not be fetched
type ErrorKind int

const (
	// KindTransport connection, TLS or body read failure
	KindTransport ErrorKind = iota
	// KindStatus non 2xx response
	KindStatus
	// KindDecode the body is not a supported image
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// FetchError is returned for every failed tile download
type FetchError struct {
	Kind       ErrorKind
	Tile       mercator.TileID
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch tile %s: %s error: status %d from %s", e.Tile, e.Kind, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch tile %s: %s error: %v", e.Tile, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

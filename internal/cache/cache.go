// Package cache stores final summaries keyed by a content fingerprint so a
// document already summarized with the same model is never sent back to the
// backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pdmoraes/jurisdigest/constants"
)

// Fingerprint identifies one (document text, document type, model) triple.
// The model is part of the key: a summary produced by another model is not
// a valid cache hit.
type Fingerprint string

func NewFingerprint(text string, dt constants.DocType, model string) Fingerprint {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(dt))
	h.Write([]byte{0})
	h.Write([]byte(model))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func (f Fingerprint) String() string { return string(f) }

// Store is a summary cache. Payloads are opaque marshaled summaries; the
// cache never inspects them.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) ([]byte, bool, error)
	Put(ctx context.Context, fp Fingerprint, payload []byte) error
	Close() error
}

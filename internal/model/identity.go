package model

import (
	"strings"

	"github.com/google/uuid"
)

// Per-kind namespaces for content-addressed identities. Deriving each kind's
// GUIDs under its own namespace keeps a Pin named "X" from ever colliding
// with an Aspect valued "X".
var (
	nsAttribute  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/attribute"))
	nsAspect     = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/aspect"))
	nsTag        = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/tag"))
	nsPin        = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/pin"))
	nsLink       = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/link"))
	nsConnection = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/connection"))
	nsTarget     = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/target"))
)

// fieldSep keeps field boundaries unambiguous inside hashed payloads, so
// ("ab","c") and ("a","bc") never hash alike.
const fieldSep = "\x1f"

// contentID derives a deterministic UUIDv5 from the given fields.
func contentID(ns uuid.UUID, fields ...string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(strings.Join(fields, fieldSep)))
}

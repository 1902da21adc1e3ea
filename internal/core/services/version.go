package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// versionPrefixLen is the number of hash characters used in version file names.
const versionPrefixLen = 8

// DataVersion returns the content hash of v: the SHA-256 of its canonical
// JSON form (object keys sorted, no insignificant whitespace). Values that
// encode to the same logical JSON always share a version.
func DataVersion(v any) (string, error) {
	canonical, err := canonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("data version: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON re-encodes v through generic maps, which encoding/json
// always writes with sorted keys. Numbers keep their literal text.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// sameJSON reports whether a and b encode to the same canonical JSON.
func sameJSON(a, b any) bool {
	ca, errA := canonicalJSON(a)
	cb, errB := canonicalJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

func versionPrefix(version string) string {
	if len(version) > versionPrefixLen {
		return version[:versionPrefixLen]
	}
	return version
}

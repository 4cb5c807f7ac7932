// Package attribute decodes directory attribute values into their stored form.
package attribute

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/go-objectsid"
	"github.com/google/uuid"
)

const (
	// GUIDLength is the size of a binary objectGUID.
	GUIDLength = 16

	generalizedTimePrefix = "20060102150405"
	sidHeaderLength       = 8
	sidSubAuthorityLength = 4
)

// DecodeTimestamp parses the YYYYMMDDHHMMSS prefix of a generalized time value as UTC.
// Empty or malformed input yields nil.
func DecodeTimestamp(value string) *time.Time {
	if len(value) < len(generalizedTimePrefix) {
		return nil
	}

	t, err := time.ParseInLocation(generalizedTimePrefix, value[:len(generalizedTimePrefix)], time.UTC)
	if err != nil {
		return nil
	}

	return &t
}

// DecodeGUID renders a binary objectGUID in canonical dashed form.
// The first three components are stored little-endian and are reversed, the last eight bytes are kept.
func DecodeGUID(raw []byte) (string, error) {
	if len(raw) != GUIDLength {
		return "", fmt.Errorf("guid must be %d bytes, got %d", GUIDLength, len(raw))
	}

	b := make([]byte, GUIDLength)
	b[0], b[1], b[2], b[3] = raw[3], raw[2], raw[1], raw[0]
	b[4], b[5] = raw[5], raw[4]
	b[6], b[7] = raw[7], raw[6]
	copy(b[8:], raw[8:])

	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", fmt.Errorf("guid: %w", err)
	}

	return id.String(), nil
}

// DecodeSID renders a binary objectSid as S-revision-authority-sub1-...-subN.
func DecodeSID(raw []byte) (string, error) {
	if len(raw) < sidHeaderLength {
		return "", fmt.Errorf("sid must be at least %d bytes, got %d", sidHeaderLength, len(raw))
	}

	count := int(raw[1])
	if want := sidHeaderLength + count*sidSubAuthorityLength; len(raw) < want {
		return "", fmt.Errorf("sid with %d sub-authorities needs %d bytes, got %d", count, want, len(raw))
	}

	return objectsid.Decode(raw).String(), nil
}

// SubAuthorities returns the sub-authority values of a binary objectSid.
func SubAuthorities(raw []byte) []uint32 {
	if len(raw) < sidHeaderLength {
		return nil
	}

	count := int(raw[1])
	out := make([]uint32, 0, count)

	for i := range count {
		off := sidHeaderLength + i*sidSubAuthorityLength
		if off+sidSubAuthorityLength > len(raw) {
			break
		}

		out = append(out, binary.LittleEndian.Uint32(raw[off:]))
	}

	return out
}

// NormalizeMultiValued folds attribute values into one column value.
// No values yield nil, one value passes through and several are joined with ", ".
func NormalizeMultiValued(values []string) *string {
	switch len(values) {
	case 0:
		return nil
	case 1:
		v := values[0]

		return &v
	default:
		v := strings.Join(values, ", ")

		return &v
	}
}

// Package vdfbinary parses Valve's binary VDF format, as used by Steam's
// shortcuts.vdf.
//
// Derived from github.com/TimDeve/valve-vdf-binary, licensed under MIT.
package vdfbinary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmptyVDF     = errors.New("the vdf you are trying to parse appears empty")
	ErrNotBinaryVDF = errors.New("the vdf appears not to be binary, are you sure it is not a text vdf?")
	ErrCorruptedVDF = errors.New("reached the end of the file earlier than expected, your file might be corrupted")
)

const (
	markerMap         byte = 0x00
	markerString      byte = 0x01
	markerNumber      byte = 0x02
	markerEndOfMap    byte = 0x08
	markerEndOfString byte = 0x00
)

// Value is a single entry in a parsed binary VDF tree: a nested Map, a
// string, or a little-endian uint32.
type Value struct {
	v any
}

// Map holds a parsed VDF block. Keys are lowercased during parsing because
// Steam writes them with inconsistent casing.
type Map map[string]Value

// Map returns the nested block stored under key.
func (m Map) Map(key string) (Map, bool) {
	child, ok := m[key].v.(Map)
	return child, ok
}

// String returns the string stored under key.
func (m Map) String(key string) (string, bool) {
	s, ok := m[key].v.(string)
	return s, ok
}

// Uint returns the number stored under key.
func (m Map) Uint(key string) (uint32, bool) {
	n, ok := m[key].v.(uint32)
	return n, ok
}

// Parse reads a complete binary VDF document into a Map.
func Parse(r io.Reader) (Map, error) {
	buf := bufio.NewReader(r)

	first, err := buf.Peek(1)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyVDF
	}
	if err != nil {
		return nil, fmt.Errorf("peek error: %w", err)
	}

	switch first[0] {
	case markerMap, markerString, markerNumber, markerEndOfMap:
	default:
		return nil, ErrNotBinaryVDF
	}

	m, err := parseMap(buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, ErrCorruptedVDF
	}
	return m, err
}

func parseMap(buf *bufio.Reader) (Map, error) {
	m := make(Map)

	for {
		marker, err := buf.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read marker error: %w", err)
		}

		if marker == markerEndOfMap {
			return m, nil
		}

		key, err := parseString(buf)
		if err != nil {
			return nil, err
		}

		var value Value
		switch marker {
		case markerMap:
			child, childErr := parseMap(buf)
			if childErr != nil {
				return nil, childErr
			}
			value = Value{child}
		case markerString:
			s, strErr := parseString(buf)
			if strErr != nil {
				return nil, strErr
			}
			value = Value{s}
		case markerNumber:
			n, numErr := parseNumber(buf)
			if numErr != nil {
				return nil, numErr
			}
			value = Value{n}
		default:
			return nil, fmt.Errorf("unexpected byte: 0x%02x, your file might be corrupted", marker)
		}

		m[strings.ToLower(key)] = value
	}
}

func parseNumber(buf *bufio.Reader) (uint32, error) {
	raw := make([]byte, 4)
	if _, err := io.ReadFull(buf, raw); err != nil {
		return 0, fmt.Errorf("read number error: %w", err)
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func parseString(buf *bufio.Reader) (string, error) {
	s, err := buf.ReadString(markerEndOfString)
	if err != nil {
		return "", fmt.Errorf("read string error: %w", err)
	}
	return s[:len(s)-1], nil
}

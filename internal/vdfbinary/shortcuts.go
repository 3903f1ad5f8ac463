// Package vdfbinary parses Valve's binary VDF format, as used by Steam's
// shortcuts.vdf.
//
// Derived from github.com/TimDeve/valve-vdf-binary, licensed under MIT.
package vdfbinary

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Shortcut is one non-Steam game entry from shortcuts.vdf. Steam assigns
// each shortcut an AppID in the upper 32-bit range, and that ID keys the
// shortcut's compatdata directory the same way a regular app's would.
type Shortcut struct {
	Name     string
	Exe      string
	StartDir string
	AppID    uint32
}

// ParseShortcuts parses Steam's shortcuts.vdf binary format. Only the appid
// is required per entry; shortcuts written by third-party tools like
// EmuDeck or Lutris routinely omit the other fields.
func ParseShortcuts(r io.Reader) ([]Shortcut, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}

	entries, ok := root.Map("shortcuts")
	if !ok {
		return nil, errors.New("could not find 'shortcuts' in parsed vdf")
	}

	shortcuts := make([]Shortcut, 0, len(entries))
	for i := 0; i < len(entries); i++ {
		entry, ok := entries.Map(strconv.Itoa(i))
		if !ok {
			return nil, fmt.Errorf("shortcut list has no entry at index %d", i)
		}

		appID, ok := entry.Uint("appid")
		if !ok {
			return nil, fmt.Errorf("shortcut at index %d has no appid", i)
		}

		name, _ := entry.String("appname")
		exe, _ := entry.String("exe")
		startDir, _ := entry.String("startdir")

		shortcuts = append(shortcuts, Shortcut{
			AppID:    appID,
			Name:     name,
			Exe:      exe,
			StartDir: startDir,
		})
	}

	return shortcuts, nil
}

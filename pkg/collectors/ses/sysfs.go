// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package ses

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const DefaultSysfsEnclosureDir = "/sys/class/enclosure"

// SysfsOpener reads the Linux enclosure class. Every component directory is
// one element; its "slot" attribute, when present, is the element index.
type SysfsOpener struct {
	Dir string
}

func (o SysfsOpener) List() ([]string, error) {
	entries, err := os.ReadDir(o.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		paths = append(paths, filepath.Join(o.Dir, e.Name()))
	}
	return paths, nil
}

func (o SysfsOpener) Open(path string) (Enclosure, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("error opening enclosure %s: %w", path, err)
	}

	enc := &sysfsEnclosure{components: make(map[uint32]string)}
	var names []string
	for _, e := range entries {
		// Component directories carry a "type" attribute.
		if _, err := os.Stat(filepath.Join(path, e.Name(), "type")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		dir := filepath.Join(path, name)
		idx := uint32(i)
		if v, err := readAttr(filepath.Join(dir, "slot")); err == nil {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				idx = uint32(n)
			}
		}
		typ, _ := readAttr(filepath.Join(dir, "type"))
		enc.elements = append(enc.elements, Element{Index: idx, Type: sysfsElementType(typ)})
		enc.components[idx] = dir
	}
	return enc, nil
}

type sysfsEnclosure struct {
	elements   []Element
	components map[uint32]string
}

func (e *sysfsEnclosure) ElementCount() (int, error) {
	return len(e.elements), nil
}

func (e *sysfsEnclosure) ElementMap() ([]Element, error) {
	return append([]Element(nil), e.elements...), nil
}

func (e *sysfsEnclosure) ElementDevNames(index uint32) ([]string, error) {
	dir, ok := e.components[index]
	if !ok {
		return nil, fmt.Errorf("no element %d", index)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "device", "block"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		names = append(names, ent.Name())
	}
	return names, nil
}

func (e *sysfsEnclosure) Close() error { return nil }

func sysfsElementType(s string) uint32 {
	switch strings.ToLower(s) {
	case "device":
		return ElementDevice
	case "array device":
		return ElementArrayDevice
	default:
		return 0
	}
}

func readAttr(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build freebsd

package ses

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl numbers from cam/scsi/scsi_enc.h: _IO('s' - 040, n).
const (
	enciocGroup           = 's' - 040
	iocVoid               = 0x20000000
	enciocGetNElm         = iocVoid | enciocGroup<<8 | 1
	enciocGetElmMap       = iocVoid | enciocGroup<<8 | 2
	enciocGetElmDevNames  = iocVoid | enciocGroup<<8 | 10
	elmDevNamesBufferSize = 512
)

type encElement struct {
	Index        uint32
	SubEnclosure uint32
	Type         uint32
}

type encElmDevNames struct {
	Index     uint32
	NamesSize uintptr
	NamesLen  uintptr
	DevNames  *byte
}

// DefaultDir holds the ses(4) device nodes.
const DefaultDir = "/dev"

// HotplugWatch reports whether devfs announces ses(4) node changes.
const HotplugWatch = true

// NewSystemOpener opens <dir>/ses* nodes.
func NewSystemOpener(dir string) Opener {
	if dir == "" {
		dir = DefaultDir
	}
	return devOpener{dir: dir}
}

type devOpener struct {
	dir string
}

func (o devOpener) List() ([]string, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "ses") && !strings.Contains(name, ".") {
			paths = append(paths, filepath.Join(o.dir, name))
		}
	}
	return paths, nil
}

func (o devOpener) Open(path string) (Enclosure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	return &ioctlEnclosure{f: f}, nil
}

type ioctlEnclosure struct {
	f    *os.File
	nelm uint32
}

func (e *ioctlEnclosure) ElementCount() (int, error) {
	var n uint32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, e.f.Fd(), enciocGetNElm, uintptr(unsafe.Pointer(&n)))
	if errno != 0 {
		return 0, fmt.Errorf("ENCIOC_GETNELM: %w", errno)
	}
	e.nelm = n
	return int(n), nil
}

func (e *ioctlEnclosure) ElementMap() ([]Element, error) {
	if e.nelm == 0 {
		if _, err := e.ElementCount(); err != nil {
			return nil, err
		}
	}
	if e.nelm == 0 {
		return nil, nil
	}

	raw := make([]encElement, e.nelm)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, e.f.Fd(), enciocGetElmMap, uintptr(unsafe.Pointer(&raw[0])))
	if errno != 0 {
		return nil, fmt.Errorf("ENCIOC_GETELMMAP: %w", errno)
	}

	elements := make([]Element, len(raw))
	for i, r := range raw {
		elements[i] = Element{Index: r.Index, SubEnclosure: r.SubEnclosure, Type: r.Type}
	}
	return elements, nil
}

func (e *ioctlEnclosure) ElementDevNames(index uint32) ([]string, error) {
	buf := make([]byte, elmDevNamesBufferSize)
	req := encElmDevNames{
		Index:     index,
		NamesSize: uintptr(len(buf)),
		DevNames:  &buf[0],
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, e.f.Fd(), enciocGetElmDevNames, uintptr(unsafe.Pointer(&req)))
	runtime.KeepAlive(buf)
	if errno != 0 {
		return nil, fmt.Errorf("ENCIOC_GETELMDEVNAMES: %w", errno)
	}
	if req.NamesLen == 0 {
		return nil, nil
	}
	n := int(req.NamesLen)
	if n > len(buf) {
		n = len(buf)
	}
	return SplitDevNames(string(buf[:n])), nil
}

func (e *ioctlEnclosure) Close() error {
	return e.f.Close()
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package ses

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

var bsdNaming = device.NamingFor(device.FreeBSDPhysicalPrefixes)

type fakeEnclosure struct {
	elements []Element
	names    map[uint32][]string
	mapErr   error
	closed   bool
}

func (f *fakeEnclosure) ElementCount() (int, error)     { return len(f.elements), nil }
func (f *fakeEnclosure) ElementMap() ([]Element, error) { return f.elements, f.mapErr }
func (f *fakeEnclosure) Close() error                   { f.closed = true; return nil }

func (f *fakeEnclosure) ElementDevNames(index uint32) ([]string, error) {
	names, ok := f.names[index]
	if !ok {
		return nil, errors.New("no device")
	}
	return names, nil
}

type fakeOpener struct {
	paths      []string
	enclosures map[string]*fakeEnclosure
	openErr    map[string]error
	lists      int
}

func (f *fakeOpener) List() ([]string, error) {
	f.lists++
	return append([]string(nil), f.paths...), nil
}

func (f *fakeOpener) Open(path string) (Enclosure, error) {
	if err := f.openErr[path]; err != nil {
		return nil, err
	}
	return f.enclosures[path], nil
}

func dualController() *fakeOpener {
	return &fakeOpener{
		// Listed out of order on purpose.
		paths: []string{"/dev/ses1", "/dev/ses0"},
		enclosures: map[string]*fakeEnclosure{
			"/dev/ses0": {
				elements: []Element{
					{Index: 0, Type: 0x0e},
					{Index: 1, Type: ElementArrayDevice},
					{Index: 2, Type: ElementArrayDevice},
					{Index: 3, Type: ElementDevice},
				},
				names: map[uint32][]string{
					1: {"da0", "pass0"},
					2: {"da1"},
					3: {"ada4"},
				},
			},
			"/dev/ses1": {
				elements: []Element{
					{Index: 5, Type: ElementArrayDevice},
					{Index: 6, Type: ElementArrayDevice},
					{Index: 7, Type: ElementArrayDevice},
				},
				names: map[uint32][]string{
					5: {"da0"},
					6: {"da24"},
					7: {"nda3"},
				},
			},
		},
	}
}

func TestCollectFirstEnclosureWins(t *testing.T) {
	c := NewCollector(dualController(), Config{Naming: bsdNaming})
	slots, err := c.Collect()
	require.NoError(t, err)

	assert.Equal(t, device.SlotInfo{Slot: 1, DeviceName: "da0", Enclosure: "ses0"}, slots["da0"])
	assert.Equal(t, device.SlotInfo{Slot: 2, DeviceName: "da1", Enclosure: "ses0"}, slots["da1"])
	assert.Equal(t, device.SlotInfo{Slot: 6, DeviceName: "da24", Enclosure: "ses1"}, slots["da24"])
	assert.Equal(t, device.SlotInfo{Slot: 7, DeviceName: "nda3", Enclosure: "ses1"}, slots["nda3"])
	assert.NotContains(t, slots, "pass0")
	assert.NotContains(t, slots, "ada4")
	assert.Len(t, slots, 4)
}

func TestCollectSkipsFailingEnclosure(t *testing.T) {
	opener := dualController()
	opener.openErr = map[string]error{"/dev/ses0": errors.New("permission denied")}

	c := NewCollector(opener, Config{Naming: bsdNaming})
	slots, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 5, slots["da0"].Slot)
	assert.Equal(t, "ses1", slots["da0"].Enclosure)
}

func TestCollectElementMapFailureIsolated(t *testing.T) {
	opener := dualController()
	opener.enclosures["/dev/ses1"].mapErr = errors.New("ENCIOC_GETELMMAP failed")

	c := NewCollector(opener, Config{Naming: bsdNaming})
	slots, err := c.Collect()
	require.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.True(t, opener.enclosures["/dev/ses1"].closed)
}

func TestCollectRescansOnlyAfterInvalidate(t *testing.T) {
	opener := dualController()
	var progress bytes.Buffer
	c := NewCollector(opener, Config{Naming: bsdNaming, Progress: &progress})

	_, err := c.Collect()
	require.NoError(t, err)
	_, err = c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 1, opener.lists)
	assert.Equal(t, 1, c.Scans())

	c.Invalidate()
	opener.enclosures["/dev/ses1"].names[6] = []string{"da25"}
	slots, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, opener.lists)
	assert.Contains(t, slots, "da25")
	assert.NotContains(t, slots, "da24")
}

func TestSplitDevNames(t *testing.T) {
	assert.Equal(t, []string{"da0", "pass0"}, SplitDevNames("da0,pass0\x00garbage"))
	assert.Equal(t, []string{"da1"}, SplitDevNames(" da1 ,,"))
	assert.Nil(t, SplitDevNames(""))
}

func TestSortEnclosures(t *testing.T) {
	paths := []string{"/dev/ses10", "/dev/ses2", "/dev/ses0"}
	sortEnclosures(paths)
	assert.Equal(t, []string{"/dev/ses0", "/dev/ses2", "/dev/ses10"}, paths)
}

func writeAttr(t *testing.T, path, value string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(value+"\n"), 0o644))
}

func TestSysfsOpener(t *testing.T) {
	root := t.TempDir()
	enc := filepath.Join(root, "0:0:12:0")
	writeAttr(t, filepath.Join(enc, "Slot 01", "type"), "array device")
	writeAttr(t, filepath.Join(enc, "Slot 01", "slot"), "1")
	require.NoError(t, os.MkdirAll(filepath.Join(enc, "Slot 01", "device", "block", "sdb"), 0o755))
	writeAttr(t, filepath.Join(enc, "Slot 02", "type"), "array device")
	writeAttr(t, filepath.Join(enc, "Slot 02", "slot"), "2")
	writeAttr(t, filepath.Join(enc, "Fan 1", "type"), "cooling")
	writeAttr(t, filepath.Join(enc, "components"), "3")

	opener := SysfsOpener{Dir: root}
	paths, err := opener.List()
	require.NoError(t, err)
	require.Equal(t, []string{enc}, paths)

	c := NewCollector(opener, Config{Naming: device.Naming{PhysicalPrefixes: []string{"sd"}}})
	slots, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, map[string]device.SlotInfo{
		"sdb": {Slot: 1, DeviceName: "sdb", Enclosure: "0:0:12:0"},
	}, slots)
}

func TestSysfsOpenerMissingDir(t *testing.T) {
	paths, err := SysfsOpener{Dir: filepath.Join(t.TempDir(), "absent")}.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func TestWatcherHandleFiltersEvents(t *testing.T) {
	target := &countingInvalidator{}
	w := &Watcher{target: target, match: MatchSESNode}

	assert.True(t, w.handle(fsnotify.Event{Name: "/dev/ses3", Op: fsnotify.Create}))
	assert.True(t, w.handle(fsnotify.Event{Name: "/dev/ses3", Op: fsnotify.Remove}))
	assert.False(t, w.handle(fsnotify.Event{Name: "/dev/ses3", Op: fsnotify.Write}))
	assert.False(t, w.handle(fsnotify.Event{Name: "/dev/da0", Op: fsnotify.Create}))
	assert.False(t, w.handle(fsnotify.Event{Name: "/dev/ses3.tmp", Op: fsnotify.Create}))
	assert.Equal(t, int32(2), target.n.Load())
}

func TestWatcherRun(t *testing.T) {
	dir := t.TempDir()
	target := &countingInvalidator{}
	w, err := NewWatcher(dir, target, MatchSESNode)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ses0"), nil, 0o644))
	assert.Eventually(t, func() bool { return target.n.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package geom

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

func putBintime(b []byte, sec int64, frac uint64) {
	binary.LittleEndian.PutUint64(b, uint64(sec))
	binary.LittleEndian.PutUint64(b[8:], frac)
}

func devstatRecord(id uint64, start, end uint32, readOps, writeOps, readBytes, writeBytes uint64) []byte {
	rec := make([]byte, devstatSize)
	le := binary.LittleEndian
	le.PutUint32(rec[offStartCount:], start)
	le.PutUint32(rec[offEndCount:], end)
	le.PutUint64(rec[offBytes+devstatRead*counterSize:], readBytes)
	le.PutUint64(rec[offBytes+devstatWrite*counterSize:], writeBytes)
	le.PutUint64(rec[offOperations+devstatRead*counterSize:], readOps)
	le.PutUint64(rec[offOperations+devstatWrite*counterSize:], writeOps)
	putBintime(rec[offDuration+devstatRead*bintimeSize:], 2, 1<<63)
	putBintime(rec[offDuration+devstatWrite*bintimeSize:], 0, 1<<62)
	putBintime(rec[offBusyTime:], 7, 0)
	le.PutUint64(rec[offID:], id)
	return rec
}

func TestParseDevstat(t *testing.T) {
	buf := make([]byte, devstatGenerationSize)
	buf = append(buf, devstatRecord(0xfffff80003c5a100, 12, 10, 5, 6, 4096, 8192)...)
	buf = append(buf, devstatRecord(0, 0, 0, 1, 1, 1, 1)...)
	buf = append(buf, devstatRecord(0xfffff80003c5a200, 3, 3, 0, 0, 0, 0)...)

	taken := time.Unix(50, 0)
	snap, err := parseDevstat(buf, taken)
	require.NoError(t, err)
	assert.Equal(t, taken, snap.Taken)
	require.Len(t, snap.Counters, 2)

	c := snap.Counters["0xfffff80003c5a100"]
	assert.Equal(t, uint64(5), c.ReadOps)
	assert.Equal(t, uint64(6), c.WriteOps)
	assert.Equal(t, uint64(4096), c.ReadBytes)
	assert.Equal(t, uint64(8192), c.WriteBytes)
	assert.Equal(t, 2500*time.Millisecond, c.ReadTime)
	assert.Equal(t, 250*time.Millisecond, c.WriteTime)
	assert.Equal(t, 7*time.Second, c.BusyTime)
	assert.Equal(t, uint64(2), c.QueueLength)

	assert.Equal(t, uint64(0), snap.Counters["0xfffff80003c5a200"].QueueLength)
}

func TestParseDevstatRejectsTruncatedBuffer(t *testing.T) {
	_, err := parseDevstat([]byte{1, 2, 3}, time.Now())
	assert.Error(t, err)

	buf := make([]byte, devstatGenerationSize+devstatSize-1)
	_, err = parseDevstat(buf, time.Now())
	assert.Error(t, err)
}

const sampleConfXML = `<?xml version="1.0"?>
<mesh>
  <class id="0xffffffff81f2b1c0">
    <name>DISK</name>
    <geom id="0xfffff80003a1e600">
      <class ref="0xffffffff81f2b1c0"/>
      <name>da0</name>
      <rank>1</rank>
      <config></config>
      <provider id="0xfffff80003a1e500">
        <geom ref="0xfffff80003a1e600"/>
        <mode>r1w1e2</mode>
        <name>da0</name>
        <mediasize>4000787030016</mediasize>
        <sectorsize>512</sectorsize>
        <config>
          <fwheads>255</fwheads>
          <ident>ZC1AB2CD</ident>
          <lunid>5000c500a1b2c3d4</lunid>
          <descr>SEAGATE ST4000NM0023</descr>
        </config>
      </provider>
    </geom>
  </class>
  <class id="0xffffffff81f2b2c0">
    <name>MULTIPATH</name>
    <geom id="0xfffff80003b00000">
      <class ref="0xffffffff81f2b2c0"/>
      <name>ZC1AB2CD</name>
      <rank>2</rank>
      <consumer id="0xfffff80003b00100">
        <geom ref="0xfffff80003b00000"/>
        <provider ref="0xfffff80003a1e500"/>
      </consumer>
      <provider id="0xfffff80003b00200">
        <geom ref="0xfffff80003b00000"/>
        <name>multipath/ZC1AB2CD</name>
        <config></config>
      </provider>
    </geom>
  </class>
</mesh>`

func TestParseConfXML(t *testing.T) {
	idents, err := parseConfXML([]byte(sampleConfXML))
	require.NoError(t, err)

	da0, ok := idents["0xfffff80003a1e500"]
	require.True(t, ok)
	assert.Equal(t, Ident{Name: "da0", Rank: 1, Ident: "ZC1AB2CD"}, da0)

	mp, ok := idents["0xfffff80003b00200"]
	require.True(t, ok)
	assert.Equal(t, "multipath/ZC1AB2CD", mp.Name)
	assert.Equal(t, 2, mp.Rank)
	assert.Empty(t, mp.Ident)

	cons, ok := idents["0xfffff80003b00100"]
	require.True(t, ok)
	assert.True(t, cons.Consumer)
}

func TestParseConfXMLInvalid(t *testing.T) {
	_, err := parseConfXML([]byte("<mesh><class>"))
	assert.Error(t, err)
}

func TestIndexTreeRefresh(t *testing.T) {
	calls := 0
	tree, err := newIndexTree(func() (map[string]Ident, error) {
		calls++
		if calls == 1 {
			return map[string]Ident{}, nil
		}
		return map[string]Ident{"0x1": {Name: "da0", Rank: 1}}, nil
	})
	require.NoError(t, err)

	_, ok := tree.Lookup("0x1")
	assert.False(t, ok)

	require.NoError(t, tree.Refresh())
	ident, ok := tree.Lookup("0x1")
	assert.True(t, ok)
	assert.Equal(t, "da0", ident.Name)
}

func TestSysfsTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "block", "sda"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "block", "sda1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "block", "sda", "device"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "block", "sda", "device", "wwid"), []byte("naa.5000c500a1b2c3d4\n"), 0o644))

	tree := NewSysfsTree(root)

	sda, ok := tree.Lookup("sda")
	require.True(t, ok)
	assert.Equal(t, Ident{Name: "sda", Rank: 1, Ident: "naa.5000c500a1b2c3d4"}, sda)

	part, ok := tree.Lookup("sda1")
	require.True(t, ok)
	assert.Equal(t, 2, part.Rank)

	_, ok = tree.Lookup("sdz")
	assert.False(t, ok)
	assert.NoError(t, tree.Refresh())
}

func linuxSysfsRoot(t *testing.T, disks ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range disks {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "block", name), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "block", name, "device"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "block", name, "device", "wwid"), []byte("wwid-"+name+"\n"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "block", "sda1"), 0o755))
	return root
}

func collectSysfs(t *testing.T, tree Tree, naming device.Naming) []device.PhysicalDisk {
	t.Helper()
	src := &fakeSource{snaps: []*Snapshot{
		snapAt(1, DeviceCounters{ID: "sda"}, DeviceCounters{ID: "sda1"}, DeviceCounters{ID: "nvme0n1"}, DeviceCounters{ID: "loop0"}),
		snapAt(2, DeviceCounters{ID: "sda", ReadOps: 100}, DeviceCounters{ID: "sda1", ReadOps: 100},
			DeviceCounters{ID: "nvme0n1", ReadOps: 50}, DeviceCounters{ID: "loop0", ReadOps: 7}),
	}}
	c := NewCollector(src, tree, naming)

	_, err := c.Collect()
	require.NoError(t, err)
	disks, err := c.Collect()
	require.NoError(t, err)
	return disks
}

func TestCollectSysfsTreeLinuxNaming(t *testing.T) {
	root := linuxSysfsRoot(t, "sda", "nvme0n1", "loop0")
	disks := collectSysfs(t, NewSysfsTree(root), device.NamingFor(device.LinuxPhysicalPrefixes))

	require.Len(t, disks, 2)
	assert.Equal(t, "nvme0n1", disks[0].Name)
	assert.Equal(t, "wwid-nvme0n1", disks[0].Ident)
	assert.InDelta(t, 50.0, disks[0].Statistics.ReadIOPS, 0.001)
	assert.Equal(t, "sda", disks[1].Name)
	assert.InDelta(t, 100.0, disks[1].Statistics.ReadIOPS, 0.001)
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/state"
)

const (
	defaultWidth = 120
	clearScreen  = "\x1b[H\x1b[2J"
	sparkWidth   = 20
)

type ConsoleOptions struct {
	// Width overrides the terminal width when positive.
	Width int
	Color bool
	// Clear redraws in place instead of appending frames.
	Clear bool
	// CRLF is needed while the terminal is in raw mode.
	CRLF bool
}

// ConsoleSink draws the dashboard as text.
type ConsoleSink struct {
	out  io.Writer
	fd   int
	tty  bool
	opts ConsoleOptions
}

func NewConsoleSink(out io.Writer, opts ConsoleOptions) *ConsoleSink {
	c := &ConsoleSink{out: out, fd: -1, opts: opts}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.fd = int(f.Fd())
		c.tty = true
	}
	return c
}

func (c *ConsoleSink) Width() int {
	if c.opts.Width > 0 {
		return c.opts.Width
	}
	if c.tty {
		if w, _, err := term.GetSize(c.fd); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

func (c *ConsoleSink) Render(snap state.Snapshot) error {
	var buf bytes.Buffer
	if c.opts.Clear {
		buf.WriteString(clearScreen)
	}
	c.header(&buf, snap)
	c.storage(&buf, snap)
	c.drives(&buf, snap)
	c.standalone(&buf, snap)
	c.system(&buf, snap)
	frame := buf.Bytes()
	if c.opts.CRLF {
		frame = bytes.ReplaceAll(frame, []byte("\n"), []byte("\r\n"))
	}
	_, err := c.out.Write(frame)
	return err
}

func (c *ConsoleSink) paint(color, s string) string {
	if !c.opts.Color {
		return s
	}
	return color + s + colorReset
}

func (c *ConsoleSink) header(w io.Writer, snap state.Snapshot) {
	host := snap.System.Host.Hostname
	if host == "" {
		host = "localhost"
	}
	updated := "waiting for first sample"
	if !snap.Updated.IsZero() {
		updated = snap.Updated.Format(time.TimeOnly)
	}
	fmt.Fprintf(w, "sanview  %s  %s  multipath=%d standalone=%d  (q to quit)\n",
		host, updated, len(snap.Multipath), len(snap.Standalone))
	if len(snap.Degraded) > 0 {
		fmt.Fprintln(w, c.paint(colorYellow, "degraded sources: "+strings.Join(snap.Degraded, ", ")))
	}
	fmt.Fprintln(w)
}

func (c *ConsoleSink) storage(w io.Writer, snap state.Snapshot) {
	agg := snap.Aggregate()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORAGE\tNOW\tHISTORY")
	rows := []struct {
		series string
		label  string
		value  string
	}{
		{state.SeriesReadIOPS, "read iops", fmt.Sprintf("%.0f", agg.ReadIOPS)},
		{state.SeriesWriteIOPS, "write iops", fmt.Sprintf("%.0f", agg.WriteIOPS)},
		{state.SeriesReadMBps, "read MB/s", fmt.Sprintf("%.1f", agg.ReadMBps)},
		{state.SeriesWriteMBps, "write MB/s", fmt.Sprintf("%.1f", agg.WriteMBps)},
		{state.SeriesReadLatency, "read lat ms", fmt.Sprintf("%.2f", agg.ReadLatencyMs)},
		{state.SeriesWriteLatency, "write lat ms", fmt.Sprintf("%.2f", agg.WriteLatencyMs)},
		{state.SeriesQueueDepth, "queue", fmt.Sprintf("%.0f", agg.QueueDepth)},
		{state.SeriesBusy, "busy %", fmt.Sprintf("%.1f", agg.BusyPct)},
	}
	for _, r := range rows {
		ceiling := 0.0
		if r.series == state.SeriesBusy {
			ceiling = 100
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.label, r.value, Sparkline(snap.Storage[r.series], sparkWidth, ceiling))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func (c *ConsoleSink) drives(w io.Writer, snap state.Snapshot) {
	if len(snap.Multipath) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tDEVICE\tSTATE\tPOOL\tVDEV\tROLE\tACTIVE\tR/s\tW/s\tRMB/s\tWMB/s\tLAT\tBUSY\tHISTORY")
	for _, d := range snap.Multipath {
		st := snap.SmoothedFor(d.Name, d.Statistics)
		slot := "-"
		if d.Slot != nil {
			slot = fmt.Sprintf("%d", *d.Slot)
		}
		pool, vdev, role := "-", "-", "-"
		if d.Pool != nil {
			pool, role = d.Pool.Pool, d.Pool.Role.String()
			if d.Pool.Vdev != "" {
				vdev = d.Pool.Vdev
			}
		}
		active := d.ActivePath
		if active == "" {
			active = "-"
		}
		stateText := d.State.String()
		if d.State != device.MultipathOptimal {
			stateText = c.paint(colorRed, stateText)
		}
		busy := c.paint(busyColor(st.BusyPct), fmt.Sprintf("%5.1f%%", st.BusyPct))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.0f\t%.0f\t%.1f\t%.1f\t%.1f\t%s\t%s\n",
			slot, d.Name, stateText, pool, vdev, role, active,
			st.ReadIOPS, st.WriteIOPS, st.ReadMBps, st.WriteMBps,
			maxLatency(st), busy, Sparkline(snap.DriveBusy[d.Name], sparkWidth, 100))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func maxLatency(st device.DiskStatistics) float64 {
	if st.ReadLatencyMs > st.WriteLatencyMs {
		return st.ReadLatencyMs
	}
	return st.WriteLatencyMs
}

func (c *ConsoleSink) standalone(w io.Writer, snap state.Snapshot) {
	if len(snap.Standalone) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DISK\tSLOT\tIDENT\tR/s\tW/s\tBUSY")
	for _, d := range snap.Standalone {
		st := snap.SmoothedFor(d.Name, d.Statistics)
		slot := "-"
		if d.Slot != nil {
			slot = fmt.Sprintf("%s:%d", d.Enclosure, *d.Slot)
		}
		ident := d.Ident
		if ident == "" {
			ident = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%.0f\t%s\n", d.Name, slot, ident, st.ReadIOPS, st.WriteIOPS,
			c.paint(busyColor(st.BusyPct), fmt.Sprintf("%.1f%%", st.BusyPct)))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func (c *ConsoleSink) system(w io.Writer, snap state.Snapshot) {
	sys := snap.System
	mem := sys.Memory
	fmt.Fprintf(w, "cpu %5.1f%% %s   mem %5.1f%% of %s   arc %s (%.2fx)\n",
		sys.CPU.Aggregate(), Sparkline(snap.CPUAggregate, sparkWidth, 100),
		mem.UsedPct, HumanBytes(float64(mem.TotalBytes)),
		HumanBytes(float64(mem.ARC.TotalBytes)), mem.ARC.Ratio)

	if len(sys.Network) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "IFACE\tRX/s\tTX/s\tHISTORY")
		for _, n := range sys.Network {
			name := n.Name
			if n.IsMember {
				name = "  " + name
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, HumanBytes(n.RxBytesPerSec), HumanBytes(n.TxBytesPerSec),
				Sparkline(snap.Network[n.Name], sparkWidth, 0))
		}
		tw.Flush()
	}
	if len(sys.VMs) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VM\tPID\tCPU\tRSS\tUP")
		for _, vm := range sys.VMs {
			fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%s\t%s\n", vm.Name, vm.PID, vm.CPUPct, HumanBytes(float64(vm.MemoryBytes)), vm.Runtime)
		}
		tw.Flush()
	}
	if len(sys.Jails) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "JID\tJAIL\tHOST\tIP\tPATH")
		for _, j := range sys.Jails {
			ips := "-"
			if len(j.IPAddresses) > 0 {
				ips = strings.Join(j.IPAddresses, ",")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", j.JID, j.Name, j.Hostname, ips, j.Path)
		}
		tw.Flush()
	}
}

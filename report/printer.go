// Package report renders simulation progress to stdout in the teacher's
// "### " voice, writes the per-kernel .out result file, merges verifier
// data, and emits a pprof profile of the miss-category breakdown.
package report

import (
	"github.com/fatih/color"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/tue-es/gpu-cache-model/hwconfig"
)

// SplitString is the banner rule printed around each kernel's processing
// block, matching io.cpp's SPLIT_STRING.
const SplitString = "###################################################"

// PrintMaxDistances bounds the "most interesting distances" stdout view.
const PrintMaxDistances = 10

// Printer renders the "### " progress voice to stdout, color-tiered by
// severity: informational lines plain, warnings yellow, errors red.
type Printer struct {
	color bool
}

// NewPrinter returns a Printer. Disabling color is useful for piping
// output to a file or a CI log that doesn't render ANSI escapes.
func NewPrinter(useColor bool) *Printer {
	return &Printer{color: useColor}
}

func (p *Printer) paint(c *color.Color, format string, a ...interface{}) {
	if !p.color {
		color.NoColor = true
	}
	c.Printf("### "+format+"\n", a...)
}

// Info prints an informational progress line.
func (p *Printer) Info(format string, a ...interface{}) {
	p.paint(color.New(color.Reset), format, a...)
}

// Warn prints a warning line, matching the original's #ifdef
// ENABLE_WARNINGS "[warning] ..." lines.
func (p *Printer) Warn(format string, a ...interface{}) {
	p.paint(color.New(color.FgYellow), "[warning] "+format, a...)
}

// Error prints an error line, matching "### Error: ..." lines.
func (p *Printer) Error(format string, a ...interface{}) {
	p.paint(color.New(color.FgRed), "Error: "+format, a...)
}

// Separator prints the SPLIT_STRING banner rule.
func (p *Printer) Separator() {
	color.New(color.Reset).Println(SplitString)
}

// Banner prints the cache-configuration summary model.cpp prints once at
// startup, before the kernel loop, extended with a host CPU-count /
// total-memory line from gopsutil.
func (p *Printer) Banner(hw hwconfig.Settings) {
	p.Separator()
	p.Info("Cache configuration:")
	p.Info("\t Cache size: %d bytes (%d lines, %d-way, %d sets)", hw.CacheBytes, hw.CacheLines, hw.CacheWays, hw.CacheSets)
	p.Info("\t Line size: %d bytes", hw.LineSize)
	p.Info("\t Cores: %d, warp size: %d, MSHRs: %d", hw.NumCores, hw.WarpSize, hw.NumMSHR)

	if counts, err := cpu.Counts(true); err == nil {
		if vm, err := mem.VirtualMemory(); err == nil {
			p.Info("\t Host: %d logical CPUs, %d MB total memory", counts, vm.Total/(1024*1024))
		}
	}
	p.Separator()
}

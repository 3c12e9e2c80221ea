// Package vector discovers interrupt service routines from the interrupt
// vector table of a firmware image.
//
// On Cortex-M parts the vector table is an array of 32-bit little-endian
// words. The first word is the initial stack pointer; every following word is
// a handler address with the Thumb bit set. [Locate] maps each populated slot
// back to the function symbol at that address.
//
// Discovery is best-effort. Every failure is reported as a deferred warning
// and yields an empty result, so user-declared entry points still work on
// binaries without a usable table.
package vector

import (
	"encoding/binary"
	"slices"

	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/symbol"
)

const (
	wordSize  = 4
	thumbBit  = 1
	emptySlot = 0xFFFFFFFF
)

// Symbol is one entry of an image's symbol table.
type Symbol struct {
	Name    string
	Value   uint64
	Func    bool // symbol is a function
	Section int  // index of the containing section, negative if none
}

// Section is the loaded contents of one image section.
type Section struct {
	Addr uint64
	Data []byte
}

// Image is the view of a binary needed to read its vector table.
type Image interface {
	Symbols() ([]Symbol, error)
	Section(index int) (*Section, error)
}

// Locate returns the sorted, normalized names of the handlers referenced by
// the vector table named table. Failures are recorded on w as deferred
// warnings under source and produce a nil result.
func Locate(img Image, table, source string, w *diag.Warnings) []string {
	syms, err := img.Symbols()
	if err != nil {
		w.Defer(source, "cannot read symbol table: %v", err)
		return nil
	}

	idx := slices.IndexFunc(syms, func(s Symbol) bool { return s.Name == table })
	if idx < 0 {
		w.Defer(source, "vector table symbol %q not found", table)
		return nil
	}
	vt := syms[idx]
	if vt.Section < 0 {
		w.Defer(source, "vector table symbol %q has no containing section", table)
		return nil
	}
	sec, err := img.Section(vt.Section)
	if err != nil {
		w.Defer(source, "cannot read section of %q: %v", table, err)
		return nil
	}
	if vt.Value < sec.Addr || vt.Value-sec.Addr > uint64(len(sec.Data)) {
		w.Defer(source, "vector table symbol %q (0x%x) lies outside its section", table, vt.Value)
		return nil
	}

	funcs := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		if s.Func {
			funcs = append(funcs, s)
		}
	}

	found := make(map[string]bool)
	data := sec.Data[vt.Value-sec.Addr:]
	for off := wordSize; off+wordSize <= len(data); off += wordSize {
		word := binary.LittleEndian.Uint32(data[off : off+wordSize])
		if word == 0 || word == emptySlot {
			continue
		}
		if name, ok := resolve(funcs, uint64(word&^thumbBit)); ok {
			found[symbol.Normalize(name)] = true
		}
	}

	names := make([]string, 0, len(found))
	for n := range found {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// resolve finds the function symbol at addr. Toolchains that encode the Thumb
// bit in symbol values are matched by a second lookup with the bit set.
func resolve(funcs []Symbol, addr uint64) (string, bool) {
	for _, want := range []uint64{addr, addr | thumbBit} {
		for _, s := range funcs {
			if s.Value == want {
				return s.Name, true
			}
		}
	}
	return "", false
}

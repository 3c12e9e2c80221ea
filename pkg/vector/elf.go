package vector

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/errors"
)

// ELFImage adapts a [debug/elf] file to [Image].
type ELFImage struct {
	f *elf.File
}

// OpenELF opens the ELF binary at path.
func OpenELF(path string) (*ELFImage, error) {
	f, err := elf.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "ELF file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBinary, err, "read ELF %s", path)
	}
	return &ELFImage{f: f}, nil
}

// Close releases the underlying file.
func (e *ELFImage) Close() error {
	return e.f.Close()
}

// Symbols returns the static symbol table.
func (e *ELFImage) Symbols() ([]Symbol, error) {
	raw, err := e.f.Symbols()
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, len(raw))
	for i, s := range raw {
		sec := -1
		if s.Section != elf.SHN_UNDEF && s.Section < elf.SHN_LORESERVE {
			sec = int(s.Section)
		}
		out[i] = Symbol{
			Name:    s.Name,
			Value:   s.Value,
			Func:    elf.ST_TYPE(s.Info) == elf.STT_FUNC,
			Section: sec,
		}
	}
	return out, nil
}

// Section returns the address and contents of the section at index.
func (e *ELFImage) Section(index int) (*Section, error) {
	if index < 0 || index >= len(e.f.Sections) {
		return nil, fmt.Errorf("section index %d out of range", index)
	}
	s := e.f.Sections[index]
	if s.Type == elf.SHT_NOBITS {
		return nil, fmt.Errorf("section %s has no file data", s.Name)
	}
	data, err := s.Data()
	if err != nil {
		return nil, fmt.Errorf("read section %s: %w", s.Name, err)
	}
	return &Section{Addr: s.Addr, Data: data}, nil
}

// LocateFile opens the ELF binary at path and runs [Locate] on it.
func LocateFile(path, table string, w *diag.Warnings) []string {
	img, err := OpenELF(path)
	if err != nil {
		w.Defer(path, "cannot open ELF file: %v", err)
		return nil
	}
	defer img.Close()
	return Locate(img, table, path, w)
}

package filesystem

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/winbridge/winbridge/internal/format"
)

// dirEntry is one entry of a directory listing. When the entry could not be
// statted, denied is set and the remaining fields are meaningless.
type dirEntry struct {
	name    string
	dir     bool
	size    int64
	modTime time.Time
	denied  bool
}

// readEntries enumerates the immediate entries of dir and stats each one
// individually. A per-entry stat failure records the entry with an access
// denied marker instead of aborting the whole enumeration. Entries keep the
// order the underlying enumeration returned them in.
func readEntries(fsys afero.Fs, dir string) ([]dirEntry, error) {
	f, err := fsys.Open(dir)
	if err != nil {
		return nil, err
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return nil, err
	}

	entries := make([]dirEntry, 0, len(names))
	for _, name := range names {
		info, err := fsys.Stat(filepath.Join(dir, name))
		if err != nil {
			entries = append(entries, dirEntry{name: name, denied: true})
			continue
		}
		entries = append(entries, dirEntry{
			name:    name,
			dir:     info.IsDir(),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return entries, nil
}

// writeListing renders the listing of dir into b: directories first, then
// files, each group in enumeration order. If recursive is true and depth
// remains, every subdirectory's listing is appended under a labeled
// subsection. Depth is strictly decremented per recursion step, so the walk
// terminates even on directory structures with symlink cycles (bounded by
// depth, not by cycle detection).
//
// Only the error from enumerating dir itself is returned; a recursive call
// that fails outright is rendered as access denied for that subdirectory and
// sibling subdirectories still proceed.
func writeListing(fsys afero.Fs, b *strings.Builder, dir string, recursive bool, maxDepth int) error {
	entries, err := readEntries(fsys, dir)
	if err != nil {
		return err
	}

	var dirs, files []dirEntry
	for _, e := range entries {
		if e.dir {
			dirs = append(dirs, e)
		} else {
			// entries that could not be statted are listed with the files;
			// their kind is unknowable
			files = append(files, e)
		}
	}

	b.WriteString("\n## Directories\n")
	if len(dirs) == 0 {
		b.WriteString("(none)\n")
	}
	for _, d := range dirs {
		b.WriteString("- [DIR] " + d.name + "\n")
	}

	b.WriteString("\n## Files\n")
	if len(files) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range files {
		if f.denied {
			b.WriteString("- " + f.name + " (access denied)\n")
			continue
		}
		b.WriteString("- " + f.name + " (" + format.Bytes(f.size) +
			", modified " + f.modTime.Format("2006-01-02 15:04:05") + ")\n")
	}

	if !recursive || maxDepth <= 0 {
		return nil
	}
	for _, d := range dirs {
		sub := filepath.Join(dir, d.name)
		b.WriteString("\n### " + sub + "\n")
		if err := writeListing(fsys, b, sub, recursive, maxDepth-1); err != nil {
			b.WriteString("(access denied)\n")
		}
	}
	return nil
}

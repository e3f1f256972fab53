package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet owns the files of one build and resolves byte offsets to lines.
type FileSet struct {
	files []File
	index map[string]FileID // path -> latest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 1),
		index: make(map[string]FileID),
	}
}

// Add stores already-normalized bytes and returns a new FileID.
// A second Add for the same path creates a new version; GetLatest returns it.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(n)
	normalized := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Load reads a file from disk, normalizes encoding and line endings, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags, err := Normalize(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory buffer, normalizing it the same way Load does.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	normalized, flags, err := Normalize(content)
	if err != nil {
		normalized = content
	}
	return fileSet.Add(name, normalized, flags|FileVirtual)
}

// Get returns the file for id.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// Len reports how many file versions the set holds.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into 1-based line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fileSet.files[span.File]
	return f.LineCol(span.Start), f.LineCol(span.End)
}

// LineCol converts a byte offset into a 1-based position.
func (f *File) LineCol(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// LineCount reports the number of lines, counting a trailing partial line.
func (f *File) LineCount() uint32 {
	n := uint32(len(f.LineIdx)) + 1 // #nosec G115 -- bounded by content length
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] == '\n' {
		n--
	}
	return n
}

// LineStart returns the byte offset where 1-based line starts.
func (f *File) LineStart(line uint32) (uint32, bool) {
	if line == 0 {
		return 0, false
	}
	if line == 1 {
		return 0, true
	}
	if int(line-2) >= len(f.LineIdx) {
		return 0, false
	}
	return f.LineIdx[line-2] + 1, true
}

// LineEnd returns the offset of the '\n' terminating line, or the content length.
func (f *File) LineEnd(line uint32) uint32 {
	if line >= 1 && int(line-1) < len(f.LineIdx) {
		return f.LineIdx[line-1]
	}
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// Offset converts a 1-based position into a byte offset, clamping the column to the line end.
func (f *File) Offset(pos LineCol) (uint32, bool) {
	start, ok := f.LineStart(pos.Line)
	if !ok || pos.Col == 0 {
		return 0, false
	}
	end := f.LineEnd(pos.Line)
	off := start + pos.Col - 1
	if off > end {
		off = end
	}
	return off, true
}

// GetLine returns the text of 1-based line without its newline.
func (f *File) GetLine(line uint32) string {
	start, ok := f.LineStart(line)
	if !ok {
		return ""
	}
	end := f.LineEnd(line)
	if int(start) > len(f.Content) || start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// Text returns the bytes covered by span.
func (f *File) Text(span Span) string {
	if int(span.End) > len(f.Content) || span.Start > span.End {
		return ""
	}
	return string(f.Content[span.Start:span.End])
}

// FormatPath renders the path: "absolute", "relative" (to baseDir), "basename" or as stored.
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
	case "relative":
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case "basename":
		return BaseName(f.Path)
	}
	return f.Path
}

package gitlib

import "io"

// FileIter iterates over the files in a tree.
type FileIter struct {
	files []*File
	idx   int
}

// Next returns the next file in the iterator.
func (fi *FileIter) Next() (*File, error) {
	if fi.idx >= len(fi.files) {
		return nil, io.EOF
	}

	f := fi.files[fi.idx]
	fi.idx++

	return f, nil
}

// ForEach calls the callback for each file.
func (fi *FileIter) ForEach(cb func(*File) error) error {
	for _, file := range fi.files {
		if cbErr := cb(file); cbErr != nil {
			return cbErr
		}
	}

	return nil
}

// Close marks the iterator as exhausted.
func (fi *FileIter) Close() {
	fi.idx = len(fi.files)
}

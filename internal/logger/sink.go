package logger

import (
	"fmt"
	"os"
	"path/filepath"
)

// rotatingFile appends to a log file and shifts it to path.1, path.2, ...
// once it would exceed maxSize. maxSize <= 0 disables rotation.
type rotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int

	f    *os.File
	size int64
}

func openRotatingFile(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	rf := &rotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rf.f, rf.size = f, info.Size()
	return nil
}

func (rf *rotatingFile) write(entry string) error {
	if rf.f == nil {
		return os.ErrClosed
	}
	if rf.maxSize > 0 && rf.size > 0 && rf.size+int64(len(entry)) > rf.maxSize {
		if err := rf.rotate(); err != nil {
			return err
		}
	}
	n, err := rf.f.WriteString(entry)
	rf.size += int64(n)
	return err
}

func (rf *rotatingFile) rotate() error {
	rf.f.Close()
	rf.f = nil

	backup := func(i int) string { return fmt.Sprintf("%s.%d", rf.path, i) }
	_ = os.Remove(backup(rf.maxBackups))
	for i := rf.maxBackups - 1; i >= 1; i-- {
		_ = os.Rename(backup(i), backup(i+1))
	}
	if rf.maxBackups > 0 {
		_ = os.Rename(rf.path, backup(1))
	} else {
		_ = os.Remove(rf.path)
	}
	return rf.open()
}

func (rf *rotatingFile) close() error {
	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}

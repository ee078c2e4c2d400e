package repository

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"campsite/pkg/model"
)

const dataFileExt = ".data"

type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database folder %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Path(date model.Date) string {
	return filepath.Join(s.dir, date.Key()+dataFileExt)
}

func (s *FileStore) Open(_ context.Context, date model.Date) (EventLog, error) {
	f, err := os.OpenFile(s.Path(date), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log for %s: %w", date.Key(), err)
	}
	return &fileLog{f: f}, nil
}

func (s *FileStore) Close(context.Context) error {
	return nil
}

type fileLog struct {
	f *os.File
}

func (l *fileLog) ReadAll(_ context.Context) ([]model.ShardEvent, error) {
	if _, err := l.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind log %s: %w", l.f.Name(), err)
	}
	events, err := decodeLines(l.f)
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", l.f.Name(), err)
	}
	return events, nil
}

func (l *fileLog) Append(_ context.Context, ev model.ShardEvent) error {
	line, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("failed to append to log %s: %w", l.f.Name(), err)
	}
	return l.f.Sync()
}

func (l *fileLog) Close() error {
	return l.f.Close()
}

func decodeLines(r io.Reader) ([]model.ShardEvent, error) {
	var events []model.ShardEvent
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := DecodeEvent(line)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

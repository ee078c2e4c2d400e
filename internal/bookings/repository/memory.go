package repository

import (
	"bytes"
	"context"
	"sync"

	"campsite/pkg/model"
)

// MemoryStore keeps each log in a byte buffer using the file encoding.
// Buffers survive Close so a reopened shard sees the previous records.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string]*bytes.Buffer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string]*bytes.Buffer)}
}

func (s *MemoryStore) Open(_ context.Context, date model.Date) (EventLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.logs[date.Key()]
	if !ok {
		buf = &bytes.Buffer{}
		s.logs[date.Key()] = buf
	}
	return &memoryLog{store: s, buf: buf}, nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

// Raw exposes a date's encoded log. Tests use it to corrupt or inspect records.
func (s *MemoryStore) Raw(date model.Date) *bytes.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.logs[date.Key()]
	if !ok {
		buf = &bytes.Buffer{}
		s.logs[date.Key()] = buf
	}
	return buf
}

type memoryLog struct {
	store *MemoryStore
	buf   *bytes.Buffer
}

func (l *memoryLog) ReadAll(_ context.Context) ([]model.ShardEvent, error) {
	l.store.mu.Lock()
	data := bytes.Clone(l.buf.Bytes())
	l.store.mu.Unlock()

	return decodeLines(bytes.NewReader(data))
}

func (l *memoryLog) Append(_ context.Context, ev model.ShardEvent) error {
	line, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	_, err = l.buf.Write(line)
	return err
}

func (l *memoryLog) Close() error {
	return nil
}

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/pkg/model"
)

var day = model.NewDate(2026, time.November, 2)

func sampleBooking() model.Booking {
	return model.Booking{
		ID:            "5b1ab1c4-0f51-4a43-9b27-5b2a8a3c7e10",
		Email:         "camper@example.com",
		FullName:      "Happy Camper",
		ArrivalDate:   day,
		DepartureDate: day.AddDays(2),
	}
}

func TestCodec(t *testing.T) {
	line, err := EncodeEvent(model.Booked{Booking: sampleBooking()})
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), line[len(line)-1], "records are newline terminated")
	assert.Contains(t, string(line), `"v":1`)
	assert.Contains(t, string(line), `"arrival_date":"2026-11-02"`)

	ev, err := DecodeEvent(line)
	require.NoError(t, err)
	booked, ok := ev.(model.Booked)
	require.True(t, ok, "expected Booked, got %T", ev)
	assert.True(t, booked.Booking.Equal(sampleBooking()))
}

func TestDecodeEvent_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "not json", line: "\xac\xed\x00\x05sr"},
		{name: "unknown version", line: `{"v":2,"type":"no_booking"}`},
		{name: "unknown type", line: `{"v":1,"type":"maybe_booked"}`},
		{name: "booked without booking", line: `{"v":1,"type":"booked"}`},
		{name: "bad date", line: `{"v":1,"type":"booked","booking":{"id":"x","arrival_date":"02/11/2026","departure_date":"2026-11-02"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.line))
			assert.ErrorIs(t, err, bookingserrors.ErrCorruptLog)
		})
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	log, err := store.Open(ctx, day)
	require.NoError(t, err)

	events, err := log.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, log.Append(ctx, model.NoBooking{}))
	require.NoError(t, log.Append(ctx, model.Booked{Booking: sampleBooking()}))
	require.NoError(t, log.Append(ctx, model.NoBooking{}))
	require.NoError(t, log.Close())

	reopened, err := store.Open(ctx, day)
	require.NoError(t, err)
	defer reopened.Close()

	events, err = reopened.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.NoBooking{}, events[0])
	assert.IsType(t, model.Booked{}, events[1])
	assert.Equal(t, model.NoBooking{}, events[2])

	require.NoError(t, reopened.Append(ctx, model.Booked{Booking: sampleBooking()}))
	events, err = reopened.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	other, err := store.Open(ctx, day.AddDays(1))
	require.NoError(t, err)
	defer other.Close()
	events, err = other.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events, "dates do not share logs")
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "database")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	exerciseStore(t, store)

	_, err = os.Stat(filepath.Join(dir, "2026-11-02.data"))
	assert.NoError(t, err, "one file per date named after the date key")
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(day), []byte("{\"v\":1,\"type\":\"no_booking\"}\ngarbage\n"), 0o644))

	log, err := store.Open(context.Background(), day)
	require.NoError(t, err)
	defer log.Close()

	_, err = log.ReadAll(context.Background())
	assert.ErrorIs(t, err, bookingserrors.ErrCorruptLog)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(ctx, Options{Backend: BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = NewStore(ctx, Options{Backend: BackendMongo})
	assert.Error(t, err)

	_, err = NewStore(ctx, Options{Backend: "sqlite"})
	assert.Error(t, err)
}

// Runs only when MONGO_TEST_URI points at a reachable server.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("campsite_test_" + time.Now().Format("20060102150405"))
	defer db.Drop(ctx)

	store, err := NewMongoStore(ctx, db, 5*time.Second)
	require.NoError(t, err)
	exerciseStore(t, store)
}

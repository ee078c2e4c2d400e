package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type Options struct {
	Backend   string
	Dir       string
	Mongo     *mongo.Database
	OpTimeout time.Duration
}

func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendMongo:
		if opts.Mongo == nil {
			return nil, fmt.Errorf("mongo backend selected without a database handle")
		}
		return NewMongoStore(ctx, opts.Mongo, opts.OpTimeout)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

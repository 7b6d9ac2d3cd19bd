package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("documento no encontrado")
	ErrConflict          = errors.New("el documento cambió de estado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrDuplicate         = errors.New("documento duplicado")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginate normaliza page/limit a skip/limit para Find.
func paginate(page, limit int) (int64, int64) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return int64((page - 1) * limit), int64(limit)
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Opener hands out request-scoped repositories. Each one pins a pooled
// connection that is returned to the pool by Close.
type Opener interface {
	Open(ctx context.Context) (ClimateRepository, error)
}

// SessionObserver is told when a scoped connection is acquired and released.
type SessionObserver interface {
	SessionOpened()
	SessionClosed()
}

type connOpener struct {
	db       *sql.DB
	observer SessionObserver
}

// NewOpener returns an Opener over db. observer may be nil.
func NewOpener(db *sql.DB, observer SessionObserver) Opener {
	return &connOpener{db: db, observer: observer}
}

func (o *connOpener) Open(ctx context.Context) (ClimateRepository, error) {
	conn, err := o.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if o.observer != nil {
		o.observer.SessionOpened()
	}
	return &repositoryImpl{
		q: conn,
		release: func() error {
			if o.observer != nil {
				o.observer.SessionClosed()
			}
			return conn.Close()
		},
	}, nil
}

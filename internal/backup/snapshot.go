package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/users"

	"go.opentelemetry.io/otel/attribute"
)

const snapshotTimeLayout = "2006-01-02T15-04-05Z"

type usersLister interface {
	List(ctx context.Context) ([]users.User, error)
}

// Snapshot is a point in time export of every user document.
type Snapshot struct {
	CreatedAt  time.Time    `json:"created_at"`
	UsersCount int          `json:"users_count"`
	Users      []users.User `json:"users"`
}

func NewSnapshot(ctx context.Context, lister usersLister, createdAt time.Time) (_ *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backup.snapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	allUsers, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if allUsers == nil {
		allUsers = []users.User{}
	}
	span.SetAttributes(attribute.Int("users.count", len(allUsers)))

	return &Snapshot{
		CreatedAt:  createdAt.UTC(),
		UsersCount: len(allUsers),
		Users:      allUsers,
	}, nil
}

// FileName is unique per second, e.g. fittrack-2026-10-19T08-30-00Z.json
func (s *Snapshot) FileName() string {
	return fmt.Sprintf("fittrack-%s.json", s.CreatedAt.UTC().Format(snapshotTimeLayout))
}

func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

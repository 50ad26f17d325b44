package mock

import (
	"context"

	"github.com/fwojciec/oadigest"
)

var _ oadigest.RecordStore = (*RecordStore)(nil)

// RecordStore is a mock implementation of oadigest.RecordStore.
type RecordStore struct {
	SaveFn func(ctx context.Context, date string, announcements []*oadigest.Announcement) error
	LoadFn func(ctx context.Context, date string) (string, []*oadigest.Announcement, error)
}

func (s *RecordStore) Save(ctx context.Context, date string, announcements []*oadigest.Announcement) error {
	return s.SaveFn(ctx, date, announcements)
}

func (s *RecordStore) Load(ctx context.Context, date string) (string, []*oadigest.Announcement, error) {
	return s.LoadFn(ctx, date)
}

package services

import (
	"context"
	"errors"
	"testing"

	"chefsight/internal/core"
)

type (
	fakeFetcher struct {
		text   string
		source string
		err    error
	}
	fakeStore struct {
		snapshotID string
		err        error
		gotRecords []core.ExpenseRecord
		gotSource  string
	}
	fakePublisher struct {
		err       error
		published int
		gotID     string
		gotCount  int
	}
)

func (f *fakeFetcher) Fetch(context.Context) (string, string, error) {
	return f.text, f.source, f.err
}

func (f *fakeStore) ReplaceAll(_ context.Context, records []core.ExpenseRecord, source string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.gotRecords = records
	f.gotSource = source
	return f.snapshotID, nil
}

func (f *fakePublisher) PublishRecordsRefreshed(_ context.Context, snapshotID string, recordCount int, _ string) error {
	f.published++
	f.gotID = snapshotID
	f.gotCount = recordCount
	return f.err
}

const refreshCSV = `date,store,item,total_cost,units,unit_type,calculated_cost_per_unit,category
2024-01-01,Costco,Ribeye Steaks,145.50,5,lbs,29.10,Proteins
2024-01-02,Whole Foods,Heavy Cream,8.50,2,qts,4.25,Dairy`

func TestRefreshParsesStoresAndPublishes(t *testing.T) {
	fetcher := &fakeFetcher{text: refreshCSV, source: "live"}
	store := &fakeStore{snapshotID: "snap-1"}
	publisher := &fakePublisher{}

	svc := NewRefreshService(fetcher, store, publisher)
	result, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if result.SnapshotID != "snap-1" || result.RecordCount != 2 || result.Source != "live" {
		t.Errorf("result = %+v", result)
	}
	if len(store.gotRecords) != 2 || store.gotSource != "live" {
		t.Errorf("store got %d records from %q", len(store.gotRecords), store.gotSource)
	}
	if publisher.published != 1 || publisher.gotID != "snap-1" || publisher.gotCount != 2 {
		t.Errorf("publisher = %+v", publisher)
	}
}

func TestRefreshWithoutPublisher(t *testing.T) {
	svc := NewRefreshService(&fakeFetcher{text: refreshCSV, source: "sample"}, &fakeStore{snapshotID: "s"}, nil)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh without publisher: %v", err)
	}
}

func TestRefreshPublishFailureIsNonFatal(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewRefreshService(&fakeFetcher{text: refreshCSV, source: "live"}, &fakeStore{snapshotID: "s"}, publisher)

	result, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.SnapshotID != "s" {
		t.Errorf("result = %+v", result)
	}
}

func TestRefreshFetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("no source")
	svc := NewRefreshService(&fakeFetcher{err: wantErr}, &fakeStore{}, nil)
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestRefreshStoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("disk full")
	svc := NewRefreshService(&fakeFetcher{text: refreshCSV, source: "live"}, &fakeStore{err: wantErr}, nil)
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

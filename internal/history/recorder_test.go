package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/profitscope/internal/predict"
	"github.com/KaramelBytes/profitscope/internal/sales"
)

func openTemp(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open("sqlite", filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndList(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()
	req, err := predict.BuildRequest(predict.NewInput(203, "Connecticut", sales.SmallMarket, "Columbian", 50, 500, 300))
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := NewEntry("gbr", req, 170)
	first.CreatedAt = base
	saved, err := r.Record(ctx, first)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("ID not assigned")
	}
	second := NewEntry("gbr", req, 99.5)
	second.CreatedAt = base.Add(time.Minute)
	if _, err := r.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := r.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d want 2", len(got))
	}
	if got[0].Prediction != 99.5 || got[1].ID != saved.ID {
		t.Errorf("not newest first: %+v", got)
	}
	e := got[1]
	if e.State != "Connecticut" || e.MarketSize != "Small Market" || e.AreaCode != 203 || e.Sales != 300 {
		t.Errorf("entry fields: %+v", e)
	}
	if !e.CreatedAt.Equal(base) {
		t.Errorf("created_at=%v want %v", e.CreatedAt, base)
	}

	one, _ := r.List(ctx, 1)
	if len(one) != 1 {
		t.Errorf("limit ignored: %d", len(one))
	}
}

func TestOpenReusesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")
	r1, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r1.Record(context.Background(), Entry{Model: "m", State: "Ohio", MarketSize: "Major Market", Product: "Mint"}); err != nil {
		t.Fatal(err)
	}
	_ = r1.Close()
	r2, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	got, err := r2.List(context.Background(), 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("got %d entries, err %v", len(got), err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error")
	}
}

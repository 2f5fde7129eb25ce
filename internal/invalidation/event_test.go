package invalidation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
)

func mustTS() time.Time { return time.Date(2025, 10, 26, 12, 30, 45, 0, time.UTC) }

func villa() *model.Listing {
	return &model.Listing{
		ID: "2", Title: "Villa 5", Rooms: 3, Bathrooms: 2, Area: 150,
		Price: "200000 F CFA", Type: model.TypeForSale,
		Location: model.Location{Latitude: 6.1375, Longitude: 1.224},
	}
}

func TestEncodeDecode_Upsert(t *testing.T) {
	in := Event{Version: 1, Op: OpUpsert, ID: "2", Seq: 7, TS: mustTS(), Listing: villa()}
	b, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Op != OpUpsert || got.Seq != 7 || !got.TS.Equal(in.TS) || *got.Listing != *in.Listing {
		t.Fatalf("got %+v", got)
	}
}

func TestDecode_Delete(t *testing.T) {
	got, err := Decode([]byte(`{"version":1,"op":"delete","id":"4","ts":"2025-10-26T12:30:45Z"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Op != OpDelete || got.ID != "4" || got.Listing != nil {
		t.Fatalf("got %+v", got)
	}
}

func TestDecode_Rejects(t *testing.T) {
	const listing = `{"id":"2","title":"Villa 5","rooms":3,"bathrooms":2,"area":150,"price":"x","type":"À vendre","location":{"latitude":6.1,"longitude":1.2}}`
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"version", `{"version":2,"op":"delete","id":"4","ts":"2025-10-26T12:30:45Z"}`},
		{"op", `{"version":1,"op":"insert","id":"4","ts":"2025-10-26T12:30:45Z"}`},
		{"empty id", `{"version":1,"op":"delete","id":"","ts":"2025-10-26T12:30:45Z"}`},
		{"bad ts", `{"version":1,"op":"delete","id":"4","ts":"yesterday"}`},
		{"missing ts", `{"version":1,"op":"delete","id":"4"}`},
		{"upsert without listing", `{"version":1,"op":"upsert","id":"2","ts":"2025-10-26T12:30:45Z"}`},
		{"id mismatch", `{"version":1,"op":"upsert","id":"9","ts":"2025-10-26T12:30:45Z","listing":` + listing + `}`},
		{"negative rooms", `{"version":1,"op":"upsert","id":"2","ts":"2025-10-26T12:30:45Z","listing":` +
			strings.Replace(listing, `"rooms":3`, `"rooms":-1`, 1) + `}`},
		{"zero area", `{"version":1,"op":"upsert","id":"2","ts":"2025-10-26T12:30:45Z","listing":` +
			strings.Replace(listing, `"area":150`, `"area":0`, 1) + `}`},
		{"latitude", `{"version":1,"op":"upsert","id":"2","ts":"2025-10-26T12:30:45Z","listing":` +
			strings.Replace(listing, `"latitude":6.1`, `"latitude":91`, 1) + `}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.body)); !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("err=%v want ErrInvalidEvent", err)
			}
		})
	}
}

func TestEncode_RejectsInvalid(t *testing.T) {
	if _, err := Encode(Event{Version: 1, Op: OpUpsert, ID: "2", TS: mustTS()}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("err=%v", err)
	}
}

package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 5, 1, 9, 0, 0, 123, time.FixedZone("x", 3600)), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("empty cursor: %v %v", c, err)
	}
	for _, value := range []string{"%%%", base64.RawURLEncoding.EncodeToString([]byte("no-separator")), base64.RawURLEncoding.EncodeToString([]byte("yesterday|" + uuid.NewString()))} {
		if _, err := ParseCursor(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatal("expected one extra row")
	}
}

func TestEncodedCursorIsQuerySafe(t *testing.T) {
	for i := 0; i < 20; i++ {
		enc := EncodeCursor(Cursor{CreatedAt: time.Now().Add(time.Duration(i) * time.Hour), ID: uuid.New()})
		if strings.ContainsAny(enc, "+/=") {
			t.Fatalf("cursor %q needs escaping", enc)
		}
	}
}

func TestTrim(t *testing.T) {
	key := func(v int) Cursor { return Cursor{ID: uuid.NewSHA1(uuid.Nil, []byte{byte(v)})} }

	rows, next := Trim([]int{1, 2, 3}, 2, key)
	if len(rows) != 2 || next == nil || next.ID != key(2).ID {
		t.Fatalf("got %v %v", rows, next)
	}
	rows, next = Trim([]int{1, 2}, 2, key)
	if len(rows) != 2 || next != nil {
		t.Fatalf("last page should have no cursor, got %v %v", rows, next)
	}
}

package service

import (
	"errors"
	"testing"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		name   string
		limit  string
		offset string
		want   Page
		err    bool
	}{
		{name: "defaults", want: Page{Limit: DefaultPageLimit}},
		{name: "explicit", limit: "10", offset: "20", want: Page{Limit: 10, Offset: 20}},
		{name: "clamped", limit: "1000", want: Page{Limit: MaxPageLimit}},
		{name: "zero limit", limit: "0", err: true},
		{name: "negative offset", offset: "-1", err: true},
		{name: "not a number", limit: "ten", err: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := ParsePage(tc.limit, tc.offset)
			if tc.err {
				if !errors.Is(err, ErrInvalidPagination) {
					t.Fatalf("expected ErrInvalidPagination, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, page)
			}
		})
	}
}

package geoip

import (
	"errors"
	"testing"
)

func TestCountryCodeWithoutDatabase(t *testing.T) {
	var r *Resolver
	tests := []struct {
		addr    string
		want    string
		wantErr error
	}{
		{addr: "127.0.0.1:5555", want: ""},
		{addr: "10.1.2.3", want: ""},
		{addr: "[::1]:80", want: ""},
		{addr: "8.8.8.8", wantErr: ErrUnavailable},
	}
	for _, tc := range tests {
		got, err := r.CountryCode(tc.addr)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%s: expected %v, got %v", tc.addr, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%s: got %q, %v", tc.addr, got, err)
		}
	}
	if _, err := r.CountryCode("not-an-ip"); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("expected nil resolver, got %v, %v", r, err)
	}
}

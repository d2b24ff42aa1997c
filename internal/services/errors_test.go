package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"achilles/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIO, "stream", "copy", "read failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"stream", "copy", "read failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrBadRequest, "guard", "resolve", "empty path", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrForbidden, "guard", "resolve", "", nil), http.StatusForbidden},
		{services.Wrap(services.ErrNotFound, "guard", "stat", "", nil), http.StatusNotFound},
		{services.Wrap(services.ErrRangeNotSatisfiable, "stream", "range", "", nil), http.StatusRequestedRangeNotSatisfiable},
		{services.Wrap(services.ErrIO, "stream", "open", "", nil), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
		{nil, http.StatusOK},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPublicMessageHidesDetails(t *testing.T) {
	err := services.Wrap(services.ErrForbidden, "guard", "contain", "/etc/passwd escapes /srv/media", nil)
	if got := services.PublicMessage(err); got != "Forbidden" {
		t.Fatalf("unexpected public message %q", got)
	}
}

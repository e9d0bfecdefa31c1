package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"matchakit/tools/security"
)

type fakeMe struct {
	u   User
	err error
}

func (f fakeMe) Me(context.Context) (User, error) { return f.u, f.err }

func TestResolveIDPrefersBackend(t *testing.T) {
	id := uuid.New()
	got, err := ResolveID(context.Background(), fakeMe{u: User{ID: id}}, "ignored")
	if err != nil || got != id {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestResolveIDFallsBackToToken(t *testing.T) {
	id := uuid.New()
	tok, _, err := security.Generate(security.DefaultOptions([]byte("s")), id.String())
	if err != nil {
		t.Fatal(err)
	}
	got, err := ResolveID(context.Background(), fakeMe{err: errors.New("down")}, tok)
	if err != nil || got != id {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestResolveIDNoSources(t *testing.T) {
	if _, err := ResolveID(context.Background(), fakeMe{err: errors.New("down")}, "junk"); err == nil {
		t.Fatal("expected error when both sources fail")
	}
}

func TestDisplayName(t *testing.T) {
	if got := (User{FirstName: "Ada", LastName: "L"}).DisplayName(); got != "Ada L" {
		t.Fatalf("got %q", got)
	}
	if got := (User{Username: "ada"}).DisplayName(); got != "ada" {
		t.Fatalf("got %q", got)
	}
}

package identity

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/dropDatabas3/idlink/internal/oauth"
)

func TestBaseUsername_SourceOrder(t *testing.T) {
	cases := []struct {
		name string
		p    oauth.ExternalProfile
		want string
	}{
		{"username wins", oauth.ExternalProfile{Username: "Amin.R", DisplayName: "X Y", Email: "z@x.com"}, "amin.r"},
		{"display name", oauth.ExternalProfile{DisplayName: "José Pérez", Email: "z@x.com"}, "joseperez"},
		{"email local part", oauth.ExternalProfile{Email: "first-last@x.com"}, "first-last"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := baseUsername(&tc.p)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %q; want %q", got, tc.want)
			}
		})
	}
}

func TestBaseUsername_FallbackWhenEmpty(t *testing.T) {
	got, err := baseUsername(&oauth.ExternalProfile{Username: "日本語", Email: "x@x.com"})
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^user_[1-9][0-9]{3}$`).MatchString(got) {
		t.Fatalf("got %q; want user_NNNN", got)
	}
}

type takenSet map[string]bool

func (s takenSet) UsernameExists(ctx context.Context, u string) (bool, error) { return s[u], nil }

func TestUniqueUsername_SequentialProbe(t *testing.T) {
	got, err := uniqueUsername(context.Background(), takenSet{"amin": true, "amin1": true}, "amin", 10)
	if err != nil || got != "amin2" {
		t.Fatalf("got %q, %v; want amin2", got, err)
	}
}

func TestUniqueUsername_BoundedThenRandomSuffix(t *testing.T) {
	taken := takenSet{"bob": true, "bob1": true, "bob2": true}
	got, err := uniqueUsername(context.Background(), taken, "bob", 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.HasPrefix(got, "bob_") || !regexp.MustCompile(`^bob_[0-9]{6}$`).MatchString(got) {
		t.Fatalf("got %q; want bob_NNNNNN", got)
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		p           oauth.ExternalProfile
		first, last string
	}{
		{oauth.ExternalProfile{GivenName: "Ana", FamilyName: "Gil", DisplayName: "X Y"}, "Ana", "Gil"},
		{oauth.ExternalProfile{DisplayName: "Ana María Gil"}, "Ana", "María Gil"},
		{oauth.ExternalProfile{DisplayName: "Cher"}, "Cher", ""},
		{oauth.ExternalProfile{FamilyName: "Solo"}, "", "Solo"},
	}
	for _, tc := range cases {
		f, l := splitName(&tc.p)
		if f != tc.first || l != tc.last {
			t.Fatalf("splitName(%+v) = %q,%q; want %q,%q", tc.p, f, l, tc.first, tc.last)
		}
	}
}

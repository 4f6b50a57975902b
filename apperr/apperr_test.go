package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := E(KindNetwork, "fetch", errors.New("connection refused"))
	wrapped := fmt.Errorf("loading mortality data: %w", base)

	if !errors.Is(wrapped, ErrNetwork) {
		t.Fatalf("expected wrapped error to match ErrNetwork")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Errorf("network error must not match ErrNotFound")
	}
	if got := KindOf(wrapped); got != KindNetwork {
		t.Errorf("KindOf = %v, want %v", got, KindNetwork)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"op and cause", E(KindParse, "orangebook", errors.New("bad header")), "orangebook: parse failure: bad header"},
		{"op only", E(KindNotFound, "metastore", nil), "metastore: not found"},
		{"cause only", E(KindInvalid, "", errors.New("empty ndc")), "invalid request: empty ndc"},
		{"helper", NotFound("rxnorm", "no rxcui for %s", "123"), "rxnorm: not found: no rxcui for 123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want unknown", got)
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseMarshal,
				Kind:   KindInvalidInput,
				Path:   []string{"sqlvar[1]", "relname"},
				Detail: "name too long",
			},
			contains: []string{"[marshal]", "invalid_input", "sqlvar[1].relname", "name too long"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindMalformed,
			},
			contains: []string{"[decode]", "malformed"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "arena full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[alloc]", "allocation", "arena full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindLoadFailed,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseUnmarshal,
		Kind:  KindContract,
		Path:  []string{"sqlvar"},
	}

	if !err.Is(&Error{Phase: PhaseUnmarshal, Kind: KindContract}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseMarshal, Kind: KindContract}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseUnmarshal, Kind: KindStale}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("resync: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseUnmarshal, Kind: KindContract}) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseMarshal, KindOverflow).
		Path("sqlvar[0]", "sqldata").
		Value(42).
		Cause(cause).
		Detail("payload %d exceeds %d", 42, 10).
		Build()

	if err.Phase != PhaseMarshal {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseMarshal)
	}
	if err.Kind != KindOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
	}
	if len(err.Path) != 2 || err.Path[0] != "sqlvar[0]" || err.Path[1] != "sqldata" {
		t.Errorf("Path = %v, want [sqlvar[0] sqldata]", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "payload 42 exceeds 10" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

type nativeErr struct{}

func (nativeErr) Error() string { return "native" }
func (nativeErr) Class() Class  { return ClassNative }

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassUnknown},
		{"plain", errors.New("x"), ClassUnknown},
		{"contract", Contract(PhaseUnmarshal, "resync before build"), ClassContract},
		{"malformed", Malformed(PhaseDecode, nil, "no end tag"), ClassContract},
		{"stale", Stale(PhaseMarshal, "set replaced"), ClassContract},
		{"allocation", AllocationFailed(PhaseAlloc, 16, nil), ClassAllocation},
		{"load", LoadFailed([]string{"a", "b"}, nil), ClassLoad},
		{"symbol", SymbolMissing("libfbclient.so", "isc_attach_database", nil), ClassLoad},
		{"native", nativeErr{}, ClassNative},
		{"wrapped native", fmt.Errorf("call: %w", nativeErr{}), ClassNative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.want {
				t.Errorf("ClassOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsContract(t *testing.T) {
	if !IsContract(Contract(PhaseRegistry, "bad handle")) {
		t.Error("contract error not classified as contract")
	}
	if IsContract(AllocationFailed(PhaseAlloc, 1, nil)) {
		t.Error("allocation error classified as contract")
	}
	if IsContract(nativeErr{}) {
		t.Error("native error classified as contract")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseAlloc, 1024, nil)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !containsSubstring(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseRegistry, []string{"handle"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseMarshal, []string{"sqlname"}, 40, 32)
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 40 {
			t.Errorf("Value = %v, want 40", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "symbol", "isc_fetch")
		if err.Kind != KindNotFound || !containsSubstring(err.Detail, "isc_fetch") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseCall, "session")
		if err.Kind != KindNotInitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotInitialized)
		}
	})

	t.Run("LoadFailed", func(t *testing.T) {
		err := LoadFailed([]string{"fbclient.dll", "gds32.dll"}, errors.New("not found"))
		msg := err.Error()
		if !containsSubstring(msg, "fbclient.dll, gds32.dll") {
			t.Errorf("message %q should list candidates", msg)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(PhaseConfig, KindInvalidInput, cause, "read config")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep cause")
		}
	})
}

func TestClassString(t *testing.T) {
	for c, want := range map[Class]string{
		ClassUnknown:    "unknown",
		ClassContract:   "contract",
		ClassAllocation: "allocation",
		ClassNative:     "native",
		ClassLoad:       "load",
	} {
		if c.String() != want {
			t.Errorf("Class(%d).String() = %q, want %q", c, c.String(), want)
		}
	}
}

func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

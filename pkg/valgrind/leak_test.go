package valgrind

import "testing"

func strPtr(s string) *string { return &s }
func u64Ptr(n uint64) *uint64 { return &n }

func TestFunctionString(t *testing.T) {
	tests := []struct {
		name     string
		function Function
		want     string
	}{
		{
			name:     "full debug info",
			function: Function{Name: strPtr("leaky"), File: strPtr("main.c"), Line: u64Ptr(12)},
			want:     "leaky (main.c:12)",
		},
		{
			name:     "file without line",
			function: Function{Name: strPtr("leaky"), File: strPtr("main.c")},
			want:     "leaky (main.c)",
		},
		{
			name:     "name only",
			function: Function{Name: strPtr("leaky")},
			want:     "leaky",
		},
		{
			name:     "no name",
			function: Function{File: strPtr("main.c"), Line: u64Ptr(12)},
			want:     "unknown (main.c:12)",
		},
		{
			name:     "nothing",
			function: Function{},
			want:     "unknown",
		},
		{
			// A line without a file carries no display meaning.
			name:     "line without file",
			function: Function{Name: strPtr("leaky"), Line: u64Ptr(12)},
			want:     "leaky",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.function.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLeakEqual(t *testing.T) {
	base := Leak{
		Bytes: 40,
		Kind:  KindDefinitelyLost,
		StackTrace: []Function{
			{Name: strPtr("leaky"), File: strPtr("main.c"), Line: u64Ptr(12)},
		},
	}

	same := Leak{
		Bytes: 40,
		Kind:  KindDefinitelyLost,
		StackTrace: []Function{
			{Name: strPtr("leaky"), File: strPtr("main.c"), Line: u64Ptr(12)},
		},
	}
	if !base.Equal(same) {
		t.Error("structurally identical leaks should be equal")
	}

	tests := []struct {
		name  string
		other Leak
	}{
		{"different bytes", Leak{Bytes: 41, Kind: base.Kind, StackTrace: base.StackTrace}},
		{"different kind", Leak{Bytes: base.Bytes, Kind: KindPossiblyLost, StackTrace: base.StackTrace}},
		{"empty trace", Leak{Bytes: base.Bytes, Kind: base.Kind}},
		{
			"absent frame field",
			Leak{Bytes: base.Bytes, Kind: base.Kind, StackTrace: []Function{
				{Name: strPtr("leaky"), File: strPtr("main.c")},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if base.Equal(tt.other) {
				t.Error("leaks should not be equal")
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindDefinitelyLost.String(); got != "Leak (definitely lost)" {
		t.Errorf("KindDefinitelyLost.String() = %q", got)
	}
	if got := KindInvalidRead.String(); got != "invalid read" {
		t.Errorf("KindInvalidRead.String() = %q", got)
	}
	// Unknown kinds never reach the domain model, but String must not
	// invent a description for them either.
	if got := Kind("Leak_Future").String(); got != "Leak_Future" {
		t.Errorf("unknown kind String() = %q", got)
	}
}

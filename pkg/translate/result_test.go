package translate

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
)

func TestResultConstructors(t *testing.T) {
	d := &dist.Distribution{Name: "six", Version: "1.0"}
	reason := stderrors.New("no prebuilt archive")

	tests := []struct {
		name    string
		result  Result
		outcome Outcome
		ok      bool
		empty   bool
	}{
		{"zero value", Result{}, OutcomeNotApplicable, false, true},
		{"not applicable", NotApplicable(), OutcomeNotApplicable, false, true},
		{"resolved", Resolved(d), OutcomeResolved, true, false},
		{"soft", Soft(reason), OutcomeSoftFailure, false, true},
		{"soft without reason", Soft(nil), OutcomeSoftFailure, false, true},
		{"fatal", Fatal(reason), OutcomeFatal, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Outcome(); got != tt.outcome {
				t.Errorf("Outcome() = %v, want %v", got, tt.outcome)
			}
			if got := tt.result.OK(); got != tt.ok {
				t.Errorf("OK() = %v, want %v", got, tt.ok)
			}
			if got := tt.result.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}

	if Resolved(d).Distribution() != d {
		t.Error("Resolved lost its distribution")
	}
	if Soft(reason).Err() != reason || Fatal(reason).Err() != reason {
		t.Error("reason not carried")
	}
}

func TestResultDegenerate(t *testing.T) {
	if r := Resolved(nil); r.Outcome() != OutcomeFatal || !errors.Is(r.Err(), errors.ErrCodeInternal) {
		t.Errorf("Resolved(nil) = %v %v", r.Outcome(), r.Err())
	}
	if r := Fatal(nil); r.Err() == nil {
		t.Error("Fatal(nil) should carry an error")
	}
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeNotApplicable: "not_applicable",
		OutcomeResolved:      "resolved",
		OutcomeSoftFailure:   "soft_failure",
		OutcomeFatal:         "fatal",
		Outcome(42):          "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}

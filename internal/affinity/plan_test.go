package affinity

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		spec    string
		ncpu    int
		want    Plan
		wantErr bool
	}{
		{"default spec", 1, "0", 4, Plan{0, 1}, false},
		{"full list", 2, "3,2,1", 4, Plan{3, 2, 1}, false},
		{"short list auto-increments", 3, "1", 8, Plan{1, 2, 3, 4}, false},
		{"auto-increment clamps at last core", 4, "2", 4, Plan{2, 3, 3, 3, 3}, false},
		{"tokens clamped high", 1, "9,12", 4, Plan{3, 3}, false},
		{"tokens clamped low", 1, "-5,1", 4, Plan{0, 1}, false},
		{"space separated", 2, "0 2 3", 4, Plan{0, 2, 3}, false},
		{"extra tokens ignored", 1, "0,1,2,3", 4, Plan{0, 1}, false},
		{"empty spec starts after core 0", 2, "", 4, Plan{1, 2, 3}, false},
		{"empty spec single core", 2, "", 1, Plan{0, 0, 0}, false},
		{"malformed falls back", 2, "abc,def", 4, Plan{0, 1, 2}, true},
		{"malformed after valid falls back", 3, "3,x", 2, Plan{0, 1, 1, 1}, true},
		{"zero workers treated as one", 0, "", 2, Plan{1, 1}, false},
		{"single core", 2, "5", 1, Plan{0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPlan(tt.workers, tt.spec, tt.ncpu)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPlan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewPlan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPlanInvariants(t *testing.T) {
	specs := []string{"", "0", "1,1,1", "7,3", "a", "2,,3", "100,-100"}
	for _, spec := range specs {
		for workers := 1; workers <= 6; workers++ {
			for ncpu := 1; ncpu <= 5; ncpu++ {
				plan, _ := NewPlan(workers, spec, ncpu)
				if len(plan) != workers+1 {
					t.Fatalf("NewPlan(%d, %q, %d) len = %d", workers, spec, ncpu, len(plan))
				}
				for i, core := range plan {
					if core < 0 || core > ncpu-1 {
						t.Fatalf("NewPlan(%d, %q, %d)[%d] = %d out of range", workers, spec, ncpu, i, core)
					}
				}
			}
		}
	}
}

func TestNewPlanFormatError(t *testing.T) {
	_, err := NewPlan(2, "abc,def", 4)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	if fe.Token != "abc" {
		t.Errorf("Token = %q, want abc", fe.Token)
	}
}

func TestPlanAccessors(t *testing.T) {
	p := Plan{2, 0, 1}
	if p.Controller() != 2 {
		t.Errorf("Controller() = %d, want 2", p.Controller())
	}
	if !reflect.DeepEqual(p.Workers(), []int{0, 1}) {
		t.Errorf("Workers() = %v", p.Workers())
	}
	if p.String() != " 2 0 1" {
		t.Errorf("String() = %q", p.String())
	}
	var empty Plan
	if empty.Workers() != nil || empty.Controller() != 0 {
		t.Error("empty plan accessors should be zero")
	}
}

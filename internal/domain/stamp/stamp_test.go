package stamp

import "testing"

func TestComputeProgress(t *testing.T) {
	cases := []struct {
		current, goal int
		want          Progress
	}{
		{0, 10, Progress{Percentage: 0, Remaining: 10}},
		{5, 10, Progress{Percentage: 50, Remaining: 5}},
		{10, 10, Progress{Percentage: 100, Remaining: 0, IsComplete: true}},
		{25, 10, Progress{Percentage: 100, Remaining: 0, IsComplete: true}},
	}
	for _, tc := range cases {
		if got := ComputeProgress(tc.current, tc.goal); got != tc.want {
			t.Fatalf("ComputeProgress(%d,%d): got=%+v want=%+v", tc.current, tc.goal, got, tc.want)
		}
	}
}

func TestMethodValid(t *testing.T) {
	if !MethodSlotGame.Valid() {
		t.Fatalf("slot_game should be valid")
	}
	if Method("bonus").Valid() {
		t.Fatalf("bonus should be invalid")
	}
}

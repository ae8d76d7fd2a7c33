package core

import "testing"

func TestCompressRuns(t *testing.T) {
	tests := []struct {
		name    string
		symbols []Symbol
		want    []Run
	}{
		{
			name: "step waveform",
			symbols: []Symbol{
				{Level0: true, Duration0: 1, Level1: true, Duration1: 1},
				{Duration0: 392, Duration1: 392},
				{Duration0: 392, Duration1: 392},
			},
			want: []Run{{Level: true, Ticks: 2}, {Level: false, Ticks: 1568}},
		},
		{
			name: "alternating",
			symbols: []Symbol{
				{Level0: true, Duration0: 5, Duration1: 3},
				{Level0: true, Duration0: 2, Level1: true, Duration1: 0},
			},
			want: []Run{{Level: true, Ticks: 5}, {Level: false, Ticks: 3}, {Level: true, Ticks: 2}},
		},
		{
			name:    "empty",
			symbols: nil,
			want:    []Run{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompressRuns(tt.symbols)
			if len(got) != len(tt.want) {
				t.Fatalf("Got %d runs %v, want %v", len(got), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Run %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTickConversions(t *testing.T) {
	if got := TicksFromUS(2, TickResolutionHz); got != 2 {
		t.Errorf("TicksFromUS(2) = %d", got)
	}
	if got := TicksFromUS(3, 8000000); got != 24 {
		t.Errorf("TicksFromUS(3, 8MHz) = %d", got)
	}
	if got := TicksToUS(1570, TickResolutionHz); got != 1570 {
		t.Errorf("TicksToUS(1570) = %d", got)
	}
	if got := TicksToDuration(1500, TickResolutionHz); got.Microseconds() != 1500 {
		t.Errorf("TicksToDuration(1500) = %v", got)
	}
}

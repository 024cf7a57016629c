package search

import "testing"

func TestScoreToFromTTRoundTrips(t *testing.T) {
	var cases = []struct {
		name string
		v    int
		ply  int
	}{
		{"plain score", 37, 5},
		{"win score", valueWin + 4, 3},
		{"loss score", valueLoss - 4, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var stored = scoreToTT(c.v, c.ply)
			var got = scoreFromTT(stored, c.ply)
			if got != c.v {
				t.Fatalf("scoreFromTT(scoreToTT(%d, %d), %d) = %d, want %d",
					c.v, c.ply, c.ply, got, c.v)
			}
		})
	}
}

func TestNewScoreReportsMateDistance(t *testing.T) {
	var s = newScore(winIn(3))
	if !s.IsMate || s.Mate <= 0 {
		t.Fatalf("newScore(winIn(3)) = %+v, want a positive mate score", s)
	}

	var l = newScore(lossIn(3))
	if !l.IsMate || l.Mate >= 0 {
		t.Fatalf("newScore(lossIn(3)) = %+v, want a negative mate score", l)
	}

	var cp = newScore(25)
	if cp.IsMate || cp.Centipawns != 25 {
		t.Fatalf("newScore(25) = %+v, want a plain cp score", cp)
	}
}

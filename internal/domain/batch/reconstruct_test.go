package batch

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

func startEvent(t time.Time) LogEvent { return LogEvent{Timestamp: t, IsStart: true} }
func endEvent(t time.Time) LogEvent   { return LogEvent{Timestamp: t, IsEnd: true} }

func TestReconstruct_SingleWindow(t *testing.T) {
	res := Reconstruct([]LogEvent{
		endEvent(at(9, 0)),
		startEvent(at(8, 0)),
	})

	require.Equal(t, []Window{{Index: 1, Start: at(8, 0), End: at(9, 0)}}, res.Windows)
	require.Empty(t, res.Diagnostics)
}

func TestReconstruct_Empty(t *testing.T) {
	res := Reconstruct(nil)
	require.Empty(t, res.Windows)
	require.Empty(t, res.Diagnostics)

	res = Reconstruct([]LogEvent{{Timestamp: at(8, 0)}})
	require.Empty(t, res.Windows)
}

func TestReconstruct_DanglingEndDropped(t *testing.T) {
	res := Reconstruct([]LogEvent{
		endEvent(at(12, 0)),
		startEvent(at(11, 0)),
		endEvent(at(10, 0)),
	})

	require.Len(t, res.Windows, 1)
	require.Equal(t, at(11, 0), res.Windows[0].Start)
	require.Equal(t, []Diagnostic{{Kind: DiagnosticDanglingEnd, At: at(10, 0)}}, res.Diagnostics)
}

func TestReconstruct_RunningBatchStartIgnored(t *testing.T) {
	res := Reconstruct([]LogEvent{
		startEvent(at(13, 0)),
		endEvent(at(12, 0)),
		startEvent(at(11, 0)),
	})

	require.Equal(t, []Window{{Index: 1, Start: at(11, 0), End: at(12, 0)}}, res.Windows)
	require.Equal(t, []Diagnostic{{Kind: DiagnosticUnclosedStart, At: at(13, 0)}}, res.Diagnostics)
}

func TestReconstruct_RepeatedEndKeepsNewest(t *testing.T) {
	res := Reconstruct([]LogEvent{
		endEvent(at(12, 0)),
		endEvent(at(11, 30)),
		startEvent(at(11, 0)),
	})

	require.Equal(t, []Window{{Index: 1, Start: at(11, 0), End: at(12, 0)}}, res.Windows)
	require.Equal(t, []Diagnostic{{Kind: DiagnosticRepeatedEnd, At: at(11, 30)}}, res.Diagnostics)
}

func TestReconstruct_SkipsNonMarkers(t *testing.T) {
	res := Reconstruct([]LogEvent{
		{Timestamp: at(12, 30)},
		endEvent(at(12, 0)),
		{Timestamp: at(11, 30)},
		startEvent(at(11, 0)),
		{Timestamp: at(10, 30)},
	})
	require.Len(t, res.Windows, 1)
	require.Empty(t, res.Diagnostics)
}

func TestReconstruct_OrdersAndIndexesByStart(t *testing.T) {
	res := Reconstruct([]LogEvent{
		endEvent(at(15, 0)),
		startEvent(at(14, 0)),
		endEvent(at(12, 0)),
		startEvent(at(11, 0)),
		endEvent(at(9, 0)),
		startEvent(at(8, 0)),
	})

	require.Len(t, res.Windows, 3)
	for i, w := range res.Windows {
		require.Equal(t, i+1, w.Index)
	}
	require.Equal(t, at(8, 0), res.Windows[0].Start)
	require.Equal(t, at(11, 0), res.Windows[1].Start)
	require.Equal(t, at(14, 0), res.Windows[2].Start)
}

// Random well-formed histories always produce ordered, disjoint, contiguously
// indexed windows, one per complete start/end pair.
func TestReconstruct_WellFormedProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 200; iter++ {
		var asc []LogEvent
		cursor := base
		pairs := rng.Intn(20)
		for p := 0; p < pairs; p++ {
			cursor = cursor.Add(time.Duration(1+rng.Intn(600)) * time.Second)
			asc = append(asc, startEvent(cursor))
			cursor = cursor.Add(time.Duration(1+rng.Intn(3600)) * time.Second)
			asc = append(asc, endEvent(cursor))
		}
		trailingEnd := rng.Intn(2) == 0
		if trailingEnd {
			asc = append([]LogEvent{endEvent(base)}, asc...)
		}

		desc := make([]LogEvent, len(asc))
		for i := range asc {
			desc[len(asc)-1-i] = asc[i]
		}

		res := Reconstruct(desc)
		require.Len(t, res.Windows, pairs)
		require.True(t, sort.SliceIsSorted(res.Windows, func(i, j int) bool {
			return res.Windows[i].Start.Before(res.Windows[j].Start)
		}))
		for i, w := range res.Windows {
			require.Equal(t, i+1, w.Index)
			require.True(t, w.Start.Before(w.End))
			if i > 0 {
				require.True(t, res.Windows[i-1].End.Before(w.Start), "windows overlap")
			}
		}
		if trailingEnd {
			require.Len(t, res.Diagnostics, 1)
			require.Equal(t, DiagnosticDanglingEnd, res.Diagnostics[0].Kind)
		} else {
			require.Empty(t, res.Diagnostics)
		}
	}
}

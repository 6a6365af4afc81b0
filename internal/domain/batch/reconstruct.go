package batch

import "sort"

// Reconstruct pairs markers into windows. Events must be ordered newest first,
// so each window's end is seen before its start.
//
// The scan repeatedly skips to the next end marker, then to the next start
// marker, and emits the pair. An end marker with no older start is dropped and
// reported as DiagnosticDanglingEnd. The returned windows are sorted by start
// and indexed from 1.
func Reconstruct(events []LogEvent) Result {
	var res Result
	i, n := 0, len(events)

	for {
		for i < n && !events[i].IsEnd {
			if events[i].IsStart {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagnosticUnclosedStart, At: events[i].Timestamp})
			}
			i++
		}
		if i >= n {
			break
		}
		end := events[i].Timestamp
		i++

		for i < n && !events[i].IsStart {
			if events[i].IsEnd {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagnosticRepeatedEnd, At: events[i].Timestamp})
			}
			i++
		}
		if i >= n {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagnosticDanglingEnd, At: end})
			break
		}
		start := events[i].Timestamp
		i++

		res.Windows = append(res.Windows, Window{Start: start, End: end})
	}

	sort.SliceStable(res.Windows, func(a, b int) bool {
		return res.Windows[a].Start.Before(res.Windows[b].Start)
	})
	for idx := range res.Windows {
		res.Windows[idx].Index = idx + 1
	}
	return res
}

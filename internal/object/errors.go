package object

import "recordkit/internal/rkerr"

// pathKeys builds an rkerr.Path of plain key segments, used at every error
// site below — indices are appended separately where a vec element is in
// play (the nested-mutation interpreter).
func pathKeys(segs ...string) rkerr.Path {
	p := make(rkerr.Path, len(segs))
	for i, s := range segs {
		p[i] = rkerr.Key(s)
	}
	return p
}

func withIndex(p rkerr.Path, i int) rkerr.Path {
	return p.With(rkerr.Index(i))
}

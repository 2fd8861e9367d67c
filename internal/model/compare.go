package model

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formula renders the fit the way it was specified, response first.
func (f *Fit) Formula() string {
	rhs := "1"
	if len(f.Terms) > 0 {
		rhs = strings.Join(f.Terms, " + ")
	}
	s := fmt.Sprintf("%s ~ %s", f.Response, rhs)
	if f.Weighted {
		s += " [weighted]"
	}
	return s
}

// Compare returns the fits sorted by AIC, best first. The input slice
// is left untouched.
func Compare(fits []*Fit) []*Fit {
	out := append([]*Fit{}, fits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AIC < out[j].AIC })
	return out
}

// RenderComparison writes an AIC ranking table, one line per fit,
// best model on top with dAIC relative to it.
func RenderComparison(w io.Writer, fits []*Fit) error {
	ranked := Compare(fits)
	nameW := len("model")
	for _, f := range ranked {
		if len(f.Name) > nameW {
			nameW = len(f.Name)
		}
	}
	if _, err := fmt.Fprintf(w, "%-*s  %4s  %3s  %10s  %8s  %6s  %s\n",
		nameW, "model", "n", "k", "AIC", "dAIC", "r2", "formula"); err != nil {
		return err
	}
	if len(ranked) == 0 {
		return nil
	}
	best := ranked[0].AIC
	for _, f := range ranked {
		if _, err := fmt.Fprintf(w, "%-*s  %4d  %3d  %10.3f  %8.3f  %6.3f  %s\n",
			nameW, f.Name, f.N, f.K, f.AIC, f.AIC-best, f.R2, f.Formula()); err != nil {
			return err
		}
	}
	return nil
}

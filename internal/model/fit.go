// Package model fits comparative linear models over a prepared
// dataset and ranks them by AIC. Estimation is delegated to gonum;
// this package only assembles design matrices, applies observation
// weights and computes the fit statistics.
package model

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/karstfen/soilcn/internal/table"
)

// Fit is one estimated model. Coef holds the intercept first, then one
// coefficient per term in Terms order. K counts estimated parameters
// including the intercept and the residual variance.
type Fit struct {
	Name     string
	Response string
	Terms    []string
	Coef     []float64
	Weighted bool
	N        int
	K        int
	RSS      float64
	R2       float64
	LogLik   float64
	AIC      float64
}

// FitOLS estimates response ~ intercept + terms by ordinary least
// squares over the complete cases of the dataset.
func FitOLS(dataset *table.Table, name, response string, terms []string, logger *zap.Logger) (*Fit, error) {
	return fit(dataset, name, response, terms, "", logger)
}

// FitWLS estimates the same model with per-row observation weights
// taken from weightCol. Rows with a missing or non-positive weight are
// dropped along with the other incomplete cases.
func FitWLS(dataset *table.Table, name, response string, terms []string, weightCol string, logger *zap.Logger) (*Fit, error) {
	if weightCol == "" {
		return nil, fmt.Errorf("weight column name is required")
	}
	return fit(dataset, name, response, terms, weightCol, logger)
}

func fit(dataset *table.Table, name, response string, terms []string, weightCol string, logger *zap.Logger) (*Fit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ys, xs, ws, dropped, err := completeCases(dataset, response, terms, weightCol)
	if err != nil {
		return nil, err
	}
	n := len(ys)
	p := len(terms) + 1
	if n <= p {
		return nil, fmt.Errorf("model %s: %d complete rows for %d coefficients", name, n, p)
	}
	if dropped > 0 {
		logger.Warn("incomplete rows dropped from fit",
			zap.String("model", name), zap.Int("rows", dropped))
	}

	// scale rows by sqrt(w) so the weighted problem solves as plain
	// least squares
	X := mat.NewDense(n, p, nil)
	Y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		s := math.Sqrt(ws[i])
		X.Set(i, 0, s)
		for j := 0; j < len(terms); j++ {
			X.Set(i, j+1, s*xs[i][j])
		}
		Y.Set(i, 0, s*ys[i])
	}

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, Y); err != nil {
		return nil, fmt.Errorf("model %s: singular design matrix: %w", name, err)
	}
	coef := make([]float64, p)
	for j := 0; j < p; j++ {
		coef[j] = beta.At(j, 0)
	}

	rss := 0.0
	for i := 0; i < n; i++ {
		pred := coef[0]
		for j, x := range xs[i] {
			pred += coef[j+1] * x
		}
		r := ys[i] - pred
		rss += ws[i] * r * r
	}

	yMean := stat.Mean(ys, ws)
	tss := 0.0
	for i, y := range ys {
		d := y - yMean
		tss += ws[i] * d * d
	}
	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	// gaussian log-likelihood at the ML variance estimate RSS/n
	ll := -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(rss/float64(n)) + 1)
	if weightCol != "" {
		for _, w := range ws {
			ll += 0.5 * math.Log(w)
		}
	}
	k := p + 1

	f := &Fit{
		Name:     name,
		Response: response,
		Terms:    append([]string{}, terms...),
		Coef:     coef,
		Weighted: weightCol != "",
		N:        n,
		K:        k,
		RSS:      rss,
		R2:       r2,
		LogLik:   ll,
		AIC:      2*float64(k) - 2*ll,
	}
	logger.Info("fitted model",
		zap.String("model", name),
		zap.String("response", response),
		zap.Strings("terms", terms),
		zap.Bool("weighted", f.Weighted),
		zap.Int("n", n),
		zap.Float64("aic", f.AIC))
	return f, nil
}

// completeCases extracts the response, term and weight values for every
// row where all of them are present. weightCol may be empty, in which
// case every kept row weighs one.
func completeCases(dataset *table.Table, response string, terms []string, weightCol string) (ys []float64, xs [][]float64, ws []float64, dropped int, err error) {
	yCol := dataset.Col(response)
	if yCol < 0 {
		return nil, nil, nil, 0, fmt.Errorf("response column %q not found", response)
	}
	tCols := make([]int, len(terms))
	for i, term := range terms {
		c := dataset.Col(term)
		if c < 0 {
			return nil, nil, nil, 0, fmt.Errorf("term column %q not found", term)
		}
		tCols[i] = c
	}
	wCol := -1
	if weightCol != "" {
		wCol = dataset.Col(weightCol)
		if wCol < 0 {
			return nil, nil, nil, 0, fmt.Errorf("weight column %q not found", weightCol)
		}
	}

rows:
	for _, row := range dataset.Rows {
		y, ok := table.Number(row[yCol])
		if !ok {
			dropped++
			continue
		}
		x := make([]float64, len(tCols))
		for i, c := range tCols {
			v, ok := table.Number(row[c])
			if !ok {
				dropped++
				continue rows
			}
			x[i] = v
		}
		w := 1.0
		if wCol >= 0 {
			v, ok := table.Number(row[wCol])
			if !ok || v <= 0 {
				dropped++
				continue
			}
			w = v
		}
		ys = append(ys, y)
		xs = append(xs, x)
		ws = append(ws, w)
	}
	return ys, xs, ws, dropped, nil
}

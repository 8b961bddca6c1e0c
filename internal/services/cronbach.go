package services

// CronbachAlpha measures internal consistency for a response matrix shaped
// [nRespondents][nItems]. Variances are population variances (divide by N),
// so perfectly correlated items yield exactly 1. Results are clamped to
// [0, 1]; degenerate input (fewer than 2 items, ragged rows, zero total
// variance) yields 0.
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}
	for _, row := range matrix {
		if len(row) != k {
			return 0
		}
	}

	totals := make([]float64, n)
	var sumItemVars float64
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = matrix[i][j]
			totals[i] += matrix[i][j]
		}
		sumItemVars += popVariance(col)
	}

	totalVar := popVariance(totals)
	if totalVar == 0 {
		return 0
	}

	kf := float64(k)
	alpha := (kf / (kf - 1)) * (1 - sumItemVars/totalVar)
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

func popVariance(xs []float64) float64 {
	n := float64(len(xs))
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= n
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / n
}

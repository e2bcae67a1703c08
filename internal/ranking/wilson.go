// Package ranking implements the score used to order presets in the public
// catalog. The score is the lower bound of the Wilson confidence interval for
// the proportion of favorable ratings, so a preset with many good ratings
// outranks one with a single perfect rating.
package ranking

import "math"

// z is the standard normal quantile for a 95% confidence interval.
const z = 1.96

// Score returns the Wilson score lower bound for positive favorable ratings
// out of total ratings. The result is in [0, 1]; zero ratings score zero.
func Score(positive, total int) float64 {
	if total == 0 {
		return 0
	}

	n := float64(total)
	p := float64(positive) / n

	left := p + z*z/(2*n)
	right := z * math.Sqrt((p*(1-p)+z*z/(4*n))/n)
	under := 1 + z*z/n

	return (left - right) / under
}

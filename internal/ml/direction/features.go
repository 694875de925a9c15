package direction

import "paperdesk/internal/ta"

// featureLookback is how many trailing closes one feature vector consumes.
const featureLookback = 15

var featureNames = []string{"ret_1", "ret_2", "ret_3", "rsi_14", "vol_10"}

// FeatureVector builds one sample from the trailing closes: the last three
// one-step returns, a 14-period RSI, and a 10-period volatility. Returns
// nil when the history is too short to fill the vector.
func FeatureVector(closes []float64) []float64 {
	if len(closes) < featureLookback {
		return nil
	}
	n := len(closes)
	return []float64{
		oneStepReturn(closes, n-1),
		oneStepReturn(closes, n-2),
		oneStepReturn(closes, n-3),
		ta.RSI(closes, 14),
		ta.Volatility(closes, 10),
	}
}

// Dataset slides FeatureVector over the history and labels each sample 1
// when the following close is higher, 0 otherwise. The last close has no
// successor and yields no sample.
func Dataset(closes []float64) ([][]float64, []int) {
	if len(closes) < featureLookback+1 {
		return nil, nil
	}
	var samples [][]float64
	var labels []int
	for end := featureLookback; end < len(closes); end++ {
		v := FeatureVector(closes[:end])
		if v == nil {
			continue
		}
		label := 0
		if closes[end] > closes[end-1] {
			label = 1
		}
		samples = append(samples, v)
		labels = append(labels, label)
	}
	return samples, labels
}

func oneStepReturn(closes []float64, i int) float64 {
	if i <= 0 || closes[i-1] == 0 {
		return 0
	}
	return (closes[i] - closes[i-1]) / closes[i-1]
}

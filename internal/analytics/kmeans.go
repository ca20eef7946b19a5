package analytics

import (
	"math"
	"math/rand"
)

const kmeansMaxIter = 100

// kmeans runs Lloyd's algorithm with k-means++ style seeding from the
// given seed. Returns the cluster assignment per vector.
func kmeans(vectors [][]float64, k int, seed int64) []int {
	n := len(vectors)
	assignments := make([]int, n)
	if n == 0 || k <= 1 {
		return assignments
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(vectors, k, rng)

	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recomputeCentroids(vectors, assignments, centroids, rng)
	}
	return assignments
}

// seedCentroids picks the first centroid uniformly and each subsequent one
// with probability proportional to squared distance from the nearest
// chosen centroid.
func seedCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(vectors[rng.Intn(len(vectors))]))

	for len(centroids) < k {
		dists := make([]float64, len(vectors))
		var sum float64
		for i, v := range vectors {
			d := math.Inf(1)
			for _, c := range centroids {
				if dd := sqDist(v, c); dd < d {
					d = dd
				}
			}
			dists[i] = d
			sum += d
		}
		if sum == 0 {
			centroids = append(centroids, cloneVec(vectors[rng.Intn(len(vectors))]))
			continue
		}
		target := rng.Float64() * sum
		var acc float64
		pick := len(vectors) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, cloneVec(vectors[pick]))
	}
	return centroids
}

func recomputeCentroids(vectors [][]float64, assignments []int, centroids [][]float64, rng *rand.Rand) {
	dim := len(vectors[0])
	counts := make([]int, len(centroids))
	for i := range centroids {
		centroids[i] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for j, x := range v {
			centroids[c][j] += x
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			// Reseed an emptied cluster from a random point.
			centroids[c] = cloneVec(vectors[rng.Intn(len(vectors))])
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(counts[c])
		}
	}
}

func nearestCentroid(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(v, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// meanSilhouette computes the average silhouette coefficient over all
// points. Quadratic in the number of vectors, which is fine at the scale
// of pipelines per dataset.
func meanSilhouette(vectors [][]float64, assignments []int, k int) float64 {
	n := len(vectors)
	if n < 2 || k < 2 {
		return 0
	}
	var total float64
	var counted int
	for i := range vectors {
		meanBySelf, countSelf := 0.0, 0
		meanOther := make([]float64, k)
		countOther := make([]int, k)
		for j := range vectors {
			if i == j {
				continue
			}
			d := math.Sqrt(sqDist(vectors[i], vectors[j]))
			if assignments[j] == assignments[i] {
				meanBySelf += d
				countSelf++
			} else {
				meanOther[assignments[j]] += d
				countOther[assignments[j]]++
			}
		}
		if countSelf == 0 {
			continue
		}
		a := meanBySelf / float64(countSelf)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if countOther[c] > 0 {
				if m := meanOther[c] / float64(countOther[c]); m < b {
					b = m
				}
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// scaleStandard centers each feature to zero mean and unit variance.
// Constant features scale to zero.
func scaleStandard(vectors [][]float64) {
	if len(vectors) == 0 {
		return
	}
	dim := len(vectors[0])
	n := float64(len(vectors))
	for j := 0; j < dim; j++ {
		var mean float64
		for _, v := range vectors {
			mean += v[j]
		}
		mean /= n
		var variance float64
		for _, v := range vectors {
			d := v[j] - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / n)
		for _, v := range vectors {
			if sd > 0 {
				v[j] = (v[j] - mean) / sd
			} else {
				v[j] = 0
			}
		}
	}
}

// scaleMinMax rescales each feature into [0, 1].
func scaleMinMax(vectors [][]float64) {
	if len(vectors) == 0 {
		return
	}
	dim := len(vectors[0])
	for j := 0; j < dim; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range vectors {
			lo = math.Min(lo, v[j])
			hi = math.Max(hi, v[j])
		}
		span := hi - lo
		for _, v := range vectors {
			if span > 0 {
				v[j] = (v[j] - lo) / span
			} else {
				v[j] = 0
			}
		}
	}
}

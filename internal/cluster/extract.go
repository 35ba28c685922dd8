package cluster

import (
	"errors"
	"fmt"
)

// Noise is the reserved label for points that belong to no cluster.
const Noise = -1

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Kind identifies a clustering algorithm.
type Kind string

const (
	KindDBSCAN  Kind = "dbscan"
	KindHDBSCAN Kind = "hdbscan"
)

// Common errors
var (
	ErrAlgorithmUnavailable = errors.New("clustering algorithm not available in this build")
	ErrInvalidParams        = errors.New("invalid clustering parameters")
)

// Algorithm is a closed set of parameter variants, one per supported
// algorithm, so a parameter that an algorithm does not accept cannot be
// passed to it.
type Algorithm interface {
	Kind() Kind

	// minPoints is the smallest point set the algorithm will be invoked
	// on; below it extraction returns an all-noise result without running.
	minPoints() int

	validate() error
}

// DBSCANParams configures density-radius clustering: eps is a ground
// distance in meters, MinSamples counts a point's neighbors including
// itself.
type DBSCANParams struct {
	EpsMeters  float64
	MinSamples int
}

func (DBSCANParams) Kind() Kind      { return KindDBSCAN }
func (p DBSCANParams) minPoints() int { return p.MinSamples }

func (p DBSCANParams) validate() error {
	if p.EpsMeters <= 0 {
		return fmt.Errorf("%w: eps_meters must be positive, got %v", ErrInvalidParams, p.EpsMeters)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("%w: min_samples must be at least 1, got %d", ErrInvalidParams, p.MinSamples)
	}
	return nil
}

// HDBSCANParams configures hierarchical density clustering. The algorithm
// picks its own density cut; the only tunable is the minimum membership of
// an emitted cluster.
type HDBSCANParams struct {
	MinClusterSize int
}

func (HDBSCANParams) Kind() Kind       { return KindHDBSCAN }
func (p HDBSCANParams) minPoints() int { return p.MinClusterSize }

func (p HDBSCANParams) validate() error {
	if p.MinClusterSize < 2 {
		return fmt.Errorf("%w: min_cluster_size must be at least 2, got %d", ErrInvalidParams, p.MinClusterSize)
	}
	return nil
}

// ParseKind maps an algorithm name from a request or config file onto a
// Kind. Unknown names are a validation error, surfaced verbatim.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindDBSCAN:
		return KindDBSCAN, nil
	case KindHDBSCAN:
		return KindHDBSCAN, nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParams, name)
}

// Result is the output of one extraction: Labels[i] is the cluster label
// for points[i] or Noise. Probabilities is populated by the hierarchical
// algorithm only and is diagnostic; nothing downstream persists it.
type Result struct {
	Labels        []int
	Probabilities []float64
	NumClusters   int
	NumNoise      int
}

// extractors maps algorithm kinds to implementations. Each implementation
// file registers itself from init, mirroring how data providers register
// their constructors; a kind missing here is a setup problem, not an
// empty result.
type extractorFunc func(points []Point, alg Algorithm) ([]int, []float64, error)

var extractors = make(map[Kind]extractorFunc)

func register(kind Kind, fn extractorFunc) {
	extractors[kind] = fn
}

// Extract runs the configured algorithm over the point set and returns
// per-point labels plus diagnostics.
//
// A point set smaller than the algorithm's minimum is not an error: the
// result is zero clusters with every point labeled noise, and the
// algorithm itself is never invoked.
func Extract(points []Point, alg Algorithm) (Result, error) {
	if err := alg.validate(); err != nil {
		return Result{}, err
	}

	if len(points) < alg.minPoints() {
		labels := make([]int, len(points))
		for i := range labels {
			labels[i] = Noise
		}
		return Result{Labels: labels, NumNoise: len(points)}, nil
	}

	fn, ok := extractors[alg.Kind()]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrAlgorithmUnavailable, alg.Kind())
	}

	labels, probs, err := fn(points, alg)
	if err != nil {
		return Result{}, err
	}

	res := Result{Labels: labels, Probabilities: probs}
	seen := make(map[int]struct{})
	for _, l := range labels {
		if l == Noise {
			res.NumNoise++
			continue
		}
		seen[l] = struct{}{}
	}
	res.NumClusters = len(seen)
	return res, nil
}

package fl

import (
	"cmp"
	"math"
	"math/bits"
	"slices"
)

// Aggregator combines the updates of one round into new model tensors.
type Aggregator interface {
	Aggregate(shape Shape, updates []Update) (Aggregate, error)
}

// Aggregate is the result of one aggregation pass.
type Aggregate struct {
	Tensors  Tensors
	Included []string
	Excluded []*ExcludedUpdateError
}

type meanAggregator struct{}

// NewMeanAggregator returns an aggregator computing the unweighted
// elementwise mean of all finite updates matching the model shape.
func NewMeanAggregator() Aggregator {
	return meanAggregator{}
}

// Aggregate sums in participant id order, then tensor contents order, so any
// permutation of the same updates produces bit-identical output. An empty
// shape adopts the most common valid shape among finite updates, ties going
// to the lowest participant id.
func (meanAggregator) Aggregate(shape Shape, updates []Update) (Aggregate, error) {
	if len(updates) == 0 {
		return Aggregate{}, ErrEmptyInput
	}

	ordered := make([]Update, len(updates))
	copy(ordered, updates)
	slices.SortStableFunc(ordered, compareUpdates)

	var res Aggregate
	finite := make([]Update, 0, len(ordered))
	for _, u := range ordered {
		if !u.Tensors.finite() {
			res.Excluded = append(res.Excluded, &ExcludedUpdateError{
				ParticipantID: u.ParticipantID,
				Got:           u.Tensors.Shape(),
				Err:           ErrNonFinite,
			})

			continue
		}
		finite = append(finite, u)
	}

	if shape.Empty() {
		shape = majorityShape(finite)
	}

	accepted := make([]Update, 0, len(finite))
	for _, u := range finite {
		got := u.Tensors.Shape()
		if !shape.Valid() || !got.Equal(shape) {
			res.Excluded = append(res.Excluded, &ExcludedUpdateError{
				ParticipantID: u.ParticipantID,
				Expected:      shape,
				Got:           got,
				Err:           ErrShapeMismatch,
			})

			continue
		}
		accepted = append(accepted, u)
		res.Included = append(res.Included, u.ParticipantID)
	}

	if len(accepted) == 0 {
		return res, ErrEmptyInput
	}

	// Terms are scaled down by a power of two no smaller than the count, which
	// is exact and keeps the running sum from overflowing.
	n := float64(len(accepted))
	exp := bits.Len(uint(len(accepted) - 1))
	mean := make(Tensors, len(shape))
	for i, size := range shape {
		mean[i] = make(Tensor, size)
	}
	for _, u := range accepted {
		for i, t := range u.Tensors {
			for j, v := range t {
				mean[i][j] += math.Ldexp(v, -exp)
			}
		}
	}
	for i := range mean {
		for j := range mean[i] {
			mean[i][j] = math.Ldexp(mean[i][j]/n, exp)
		}
	}
	if !mean.finite() {
		return res, ErrNonFinite
	}
	res.Tensors = mean

	return res, nil
}

func (ts Tensors) finite() bool {
	for _, t := range ts {
		for _, v := range t {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// majorityShape returns the valid shape shared by most updates. updates are
// sorted, so a shape's first index is its lowest participant id.
func majorityShape(updates []Update) Shape {
	type tally struct {
		shape Shape
		first int
		count int
	}
	tallies := make(map[string]*tally)
	for i, u := range updates {
		s := u.Tensors.Shape()
		if !s.Valid() {
			continue
		}
		key := s.String()
		if _, ok := tallies[key]; !ok {
			tallies[key] = &tally{shape: s, first: i}
		}
		tallies[key].count++
	}

	var best *tally
	for _, t := range tallies {
		if best == nil || t.count > best.count || (t.count == best.count && t.first < best.first) {
			best = t
		}
	}
	if best == nil {
		return nil
	}

	return best.shape
}

func compareUpdates(a, b Update) int {
	if c := cmp.Compare(a.ParticipantID, b.ParticipantID); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.Tensors), len(b.Tensors)); c != 0 {
		return c
	}
	for i := range a.Tensors {
		if c := slices.Compare(a.Tensors[i], b.Tensors[i]); c != 0 {
			return c
		}
	}

	return 0
}

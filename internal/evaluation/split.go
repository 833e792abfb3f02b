package evaluation

import "math/rand"

// StratifiedSplit partitions indices 0..len(y)-1 into train and test sets so
// that each class keeps roughly the same share in both. testFrac is taken per
// class and rounded the way scikit-learn does, with at least one test sample
// per class when the class has more than one member.
func StratifiedSplit(y []int, testFrac float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	byClass := map[int][]int{}
	classes := []int{}
	for i, c := range y {
		if _, ok := byClass[c]; !ok {
			classes = append(classes, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(testFrac*float64(len(idx)) + 0.5)
		if nTest == 0 && len(idx) > 1 && testFrac > 0 {
			nTest = 1
		}
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test
}

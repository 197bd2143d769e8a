package parallel

// Shards returns the number of shards of size shardSize needed to cover n items.
func Shards(n, shardSize int) int {
	if n <= 0 {
		return 0
	}
	if shardSize <= 0 {
		shardSize = n
	}
	return (n + shardSize - 1) / shardSize
}

// ForEachShard splits [0, n) into contiguous shards of at most shardSize
// items and calls fn(shard, lo, hi) for each on a pool of workers.
// Shards run in no particular order. Any error aborts the remaining shards
// and is returned.
func ForEachShard(workers, n, shardSize int, fn func(shard, lo, hi int) error) error {
	count := Shards(n, shardSize)
	if count == 0 {
		return nil
	}
	if shardSize <= 0 {
		shardSize = n
	}

	if workers > count {
		workers = count
	}
	if workers <= 1 {
		for s := 0; s < count; s++ {
			lo, hi := bounds(s, n, shardSize)
			if err := fn(s, lo, hi); err != nil {
				return err
			}
		}
		return nil
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}
	for s := 0; s < count; s++ {
		lo, hi := bounds(s, n, shardSize)
		if err := pool.Submit(func() error { return fn(s, lo, hi) }); err != nil {
			pool.Close()
			return err
		}
	}
	return pool.Wait()
}

// SumShards runs count over every shard and adds the per-shard vectors of
// width entries together. Summation is commutative, so shard order does
// not affect the result.
func SumShards(workers, n, shardSize, width int, count func(lo, hi int, into []int) error) ([]int, error) {
	partials := make([][]int, Shards(n, shardSize))
	err := ForEachShard(workers, n, shardSize, func(shard, lo, hi int) error {
		part := make([]int, width)
		if err := count(lo, hi, part); err != nil {
			return err
		}
		partials[shard] = part
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := make([]int, width)
	for _, part := range partials {
		for i, v := range part {
			total[i] += v
		}
	}
	return total, nil
}

func bounds(shard, n, shardSize int) (int, int) {
	lo := shard * shardSize
	hi := lo + shardSize
	if hi > n {
		hi = n
	}
	return lo, hi
}

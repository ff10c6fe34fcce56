package shared

// ChunkRanges splits n items into consecutive [start, end) ranges holding at
// most size items each. It is used to bound the number of observations handed
// to a value network in one call. A non-positive size yields a single range
// covering everything; n <= 0 yields no ranges.
func ChunkRanges(n, size int) [][2]int {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size >= n {
		return [][2]int{{0, n}}
	}

	ranges := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

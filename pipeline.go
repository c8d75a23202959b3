package collide

import "sync"

// task splits data into one contiguous chunk per worker and calls fn on every item.
// fn receives the item index so workers can write to disjoint result slots.
func task[T any](workersCount int, data []T, fn func(index int, item T)) {
	dataSize := len(data)
	if dataSize == 0 {
		return
	}
	workersCount = min(max(1, workersCount), dataSize)
	if workersCount == 1 {
		for i, item := range data {
			fn(i, item)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min(start+chunkSize, dataSize)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i, data[i])
			}
		}(start, end)
	}
	wg.Wait()
}

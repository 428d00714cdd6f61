package feature

import (
	"sort"
	"time"

	"github.com/rushteam/histfeat/core"
)

// GroupByClient 按 client_id 分组，每组按时间戳稳定升序排序。
// 排序后的分组满足计算器「事件按时间升序」的前置条件。
func GroupByClient(events []core.Event) map[int64][]core.Event {
	groups := make(map[int64][]core.Event)
	for i := range events {
		id := events[i].ClientID
		groups[id] = append(groups[id], events[i])
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].Timestamp.Before(g[j].Timestamp)
		})
	}
	return groups
}

// MaxTimestamp 返回所有事件集合中最大的时间戳；没有事件时返回零值。
func MaxTimestamp(collections ...[]core.Event) time.Time {
	var max time.Time
	for _, events := range collections {
		for i := range events {
			if events[i].Timestamp.After(max) {
				max = events[i].Timestamp
			}
		}
	}
	return max
}

// ClientIDs 返回事件集合中出现过的全部 client_id（升序、去重）。
func ClientIDs(collections ...[]core.Event) []int64 {
	seen := make(map[int64]struct{})
	for _, events := range collections {
		for i := range events {
			seen[events[i].ClientID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

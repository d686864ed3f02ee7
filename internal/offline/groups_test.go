package offline

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/models"
)

func newIndex(reader *fakeReader, kv *memKV, online bool) *GroupsIndex {
	opts := testOptions()
	opts.PrefetchPacing = time.Millisecond
	p := NewPrefetcher(reader, NewCacheStore(kv, nil), opts)
	return NewGroupsIndex(testUser, kv, reader, p, NewMonitor(online, nil), opts)
}

func TestGroupsIndex_OnlineRefreshesAndPrefetches(t *testing.T) {
	kv := newMemKV()
	reader := liveReader()
	reader.groups["g2"] = models.Group{ID: "g2", Name: "Trip"}
	idx := newIndex(reader, kv, true)

	res, err := idx.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !res.Live || len(res.Groups) != 2 {
		t.Fatalf("got %+v", res)
	}

	select {
	case <-res.Prefetched:
	case <-time.After(5 * time.Second):
		t.Fatal("prefetch did not finish")
	}
	for _, id := range []string{"g1", "g2"} {
		if !kv.has(CacheKey(id)) {
			t.Errorf("group %s was not prefetched", id)
		}
	}
	if !kv.has(GroupsKey(testUser)) {
		t.Fatal("group list was not cached")
	}

	// Offline, the cached list is served without any request.
	offline := NewGroupsIndex(testUser, kv, reader, nil, NewMonitor(false, nil), testOptions())
	before := reader.count("groups")
	res, err = offline.Load(context.Background())
	if err != nil {
		t.Fatalf("offline Load: %v", err)
	}
	if res.Live || len(res.Groups) != 2 || res.Groups[1].Name != "Trip" {
		t.Errorf("offline result = %+v", res)
	}
	if reader.count("groups") != before {
		t.Error("offline load must not hit the network")
	}
}

func TestGroupsIndex_FailureFallsBackToCache(t *testing.T) {
	kv := newMemKV()
	reader := liveReader()
	if _, err := newIndex(reader, kv, true).Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	reader.setErr("groups", connect.NewError(connect.CodeUnavailable, errors.New("down")))
	res, err := newIndex(reader, kv, true).Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Live || len(res.Groups) != 1 || res.Groups[0].ID != "g1" {
		t.Errorf("got %+v, want cached list", res)
	}
}

func TestGroupsIndex_EmptyCacheOffline(t *testing.T) {
	res, err := newIndex(liveReader(), newMemKV(), false).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Groups) != 0 || res.Prefetched != nil {
		t.Errorf("got %+v", res)
	}
}

package govgram

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func initMockRedis() {
	mr, _ := miniredis.Run()
	redisUri := "redis://" + mr.Addr()
	connOptions, _ := ParseRedisURI(redisUri)
	MakeRedisClient(*connOptions)
}

func buildSampleTable(t testing.TB) *FrequencyTable {
	counter, err := NewFrequencyCounter(1, 2)
	if err != nil {
		t.Fatalf("counter should build, got error %v", err)
	}
	counter.Accumulate("ab cd ab")
	counter.Accumulate("ab cde")
	table, err := counter.BuildTable(0.1)
	if err != nil {
		t.Fatalf("table should build, got error %v", err)
	}
	return table
}

func TestFrequencyTableRedisStoreLoad(t *testing.T) {
	initMockRedis()
	aTable := buildSampleTable(t)

	store, err := NewFrequencyTableRedis()
	if err != nil {
		t.Fatalf("store should build, got error %v", err)
	}
	if err := store.Store(aTable); err != nil {
		t.Fatalf("error while storing table, error %v", err)
	}
	bTable, err := store.Load()
	if err != nil {
		t.Fatalf("error while loading table, error %v", err)
	}
	if ok, err := aTable.Equals(bTable); !ok {
		t.Errorf("aTable and bTable should be equal, %v", err)
	}
	if bTable.Rows() != aTable.Rows() {
		t.Errorf("rows should survive the roundtrip, got %d and %d", bTable.Rows(), aTable.Rows())
	}
	if bTable.AvgWordLen() != aTable.AvgWordLen() {
		t.Errorf("average word length should survive the roundtrip, got %v and %v", bTable.AvgWordLen(), aTable.AvgWordLen())
	}
	if bTable.MinFrequency() != aTable.MinFrequency() || bTable.MaxFrequency() != aTable.MaxFrequency() {
		t.Error("sentinel frequencies should survive the roundtrip")
	}
}

func TestFrequencyTableRedisReplace(t *testing.T) {
	initMockRedis()
	aTable := buildSampleTable(t)

	store, _ := NewFrequencyTableRedis()
	store.Store(aTable)

	counter, _ := NewFrequencyCounter(1, 2)
	counter.Accumulate("xy")
	cTable, _ := counter.BuildTable(0)
	if err := store.Store(cTable); err != nil {
		t.Fatalf("error while replacing table, error %v", err)
	}
	bTable, err := store.Load()
	if err != nil {
		t.Fatalf("error while loading table, error %v", err)
	}
	if ok, err := cTable.Equals(bTable); !ok {
		t.Errorf("the replacement should be loaded, %v", err)
	}
	if _, ok := bTable.Lookup("ab"); ok {
		t.Error("entries of the replaced table should be gone")
	}
}

func TestFrequencyTableRedisLookup(t *testing.T) {
	initMockRedis()
	aTable := buildSampleTable(t)

	store, _ := NewFrequencyTableRedis()
	store.Store(aTable)

	freq, ok, err := store.Lookup("ab")
	if err != nil {
		t.Fatalf("error while looking up q-gram, error %v", err)
	}
	expected, _ := aTable.Lookup("ab")
	if !ok || freq != expected {
		t.Errorf("frequency of ab should be %v, got %v %v", expected, freq, ok)
	}
	if _, ok, err := store.Lookup("zz"); ok || err != nil {
		t.Errorf("zz should be absent without error, got %v %v", ok, err)
	}
}

func TestFrequencyTableRedisImportFromRedisKey(t *testing.T) {
	initMockRedis()
	aTable := buildSampleTable(t)

	aStore, _ := NewFrequencyTableRedis()
	aStore.Store(aTable)

	metadataKey := aStore.MetadataKey()
	bStore, err := NewFrequencyTableRedisFromKey(metadataKey)
	if err != nil {
		t.Fatalf("store should build from key, got error %v", err)
	}
	bTable, err := bStore.Load()
	if err != nil {
		t.Fatalf("error while loading table, error %v", err)
	}
	if ok, err := aTable.Equals(bTable); !ok {
		t.Errorf("aTable and bTable should be equal, %v", err)
	}
}

func TestFrequencyTableRedisFromBadKey(t *testing.T) {
	initMockRedis()
	if _, err := NewFrequencyTableRedisFromKey("no-such-metadata-key"); err == nil {
		t.Error("missing metadata key should error out")
	}
}

func TestFrequencyTableRedisDrop(t *testing.T) {
	initMockRedis()
	aTable := buildSampleTable(t)

	store, _ := NewFrequencyTableRedis()
	store.Store(aTable)
	if err := store.Drop(); err != nil {
		t.Fatalf("error while dropping table, error %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("loading a dropped table should error out")
	}
}

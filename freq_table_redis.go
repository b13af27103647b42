package govgram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/kwertop/govgram/internal/util"
)

// storeBatchSize bounds the number of entries per ZADD while storing a table.
const storeBatchSize = 1000

// FrequencyTableRedis persists frequency tables in Redis so a table learned
// by one process can be served to others. Entries live in a sorted set with
// the q-gram as member and its frequency as score, corpus metadata in a
// hash. Publishing a new snapshot is a Store; readers Load an immutable
// in-memory FrequencyTable and keep using it until they load a newer one.
// _key_ holds the Redis key of the sorted set.
// _metadataKey_ is used to store the additional information about the table
// for retrieving it by the Redis key.
type FrequencyTableRedis struct {
	key         string
	metadataKey string
}

// NewFrequencyTableRedis allocates Redis keys for a frequency table store.
func NewFrequencyTableRedis() (*FrequencyTableRedis, error) {
	key := util.GenerateRandomString(16)
	metadataKey := util.GenerateRandomString(16)
	store := &FrequencyTableRedis{key, metadataKey}
	err := getRedisClient().HSet(context.Background(), metadataKey, map[string]interface{}{"key": key}).Err()
	if err != nil {
		return nil, fmt.Errorf("govgram: error creating frequency table redis, error: %v", err)
	}
	return store, nil
}

// NewFrequencyTableRedisFromKey is used to create a FrequencyTableRedis from
// the _metadataKey_ (the Redis key used to store the metadata about the
// table) passed. For this to work, value should be present in Redis at
// _metadataKey_.
func NewFrequencyTableRedisFromKey(metadataKey string) (*FrequencyTableRedis, error) {
	values, err := getRedisClient().HGetAll(context.Background(), metadataKey).Result()
	if err != nil {
		return nil, fmt.Errorf("govgram: error creating frequency table from redis key, error: %v", err)
	}
	key := values["key"]
	if key == "" {
		return nil, fmt.Errorf("govgram: error creating frequency table from redis key")
	}
	return &FrequencyTableRedis{key, metadataKey}, nil
}

// MetadataKey returns the metadataKey
func (t *FrequencyTableRedis) MetadataKey() string {
	return t.metadataKey
}

// Store replaces the stored table with _table_.
func (t *FrequencyTableRedis) Store(table *FrequencyTable) error {
	pipe := getRedisClient().Pipeline()
	ctx := context.Background()
	pipe.Del(ctx, t.key)
	entries := table.Entries()
	for start := 0; start < len(entries); start += storeBatchSize {
		end := start + storeBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		members := make([]redis.Z, 0, end-start)
		for _, entry := range entries[start:end] {
			members = append(members, redis.Z{Score: float64(entry.Frequency), Member: entry.QGram})
		}
		pipe.ZAdd(ctx, t.key, members...)
	}
	pipe.HSet(ctx, t.metadataKey, map[string]interface{}{
		"key":        t.key,
		"minq":       table.MinQ(),
		"maxq":       table.MaxQ(),
		"minfreq":    float64(table.MinFrequency()),
		"maxfreq":    float64(table.MaxFrequency()),
		"avgwordlen": float64(table.AvgWordLen()),
		"rows":       table.Rows(),
	})
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("govgram: error storing frequency table in redis, error: %v", err)
	}
	return nil
}

// Load reads the stored table into an immutable in-memory FrequencyTable.
func (t *FrequencyTableRedis) Load() (*FrequencyTable, error) {
	ctx := context.Background()
	values, err := getRedisClient().HGetAll(ctx, t.metadataKey).Result()
	if err != nil {
		return nil, fmt.Errorf("govgram: error loading frequency table from redis, error: %v", err)
	}
	minQ, _ := strconv.Atoi(values["minq"])
	maxQ, _ := strconv.Atoi(values["maxq"])
	if minQ <= 0 || maxQ <= 0 {
		return nil, fmt.Errorf("govgram: error loading frequency table from redis, no stored table at %s", t.metadataKey)
	}
	members, err := getRedisClient().ZRangeWithScores(ctx, t.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("govgram: error loading frequency table from redis, error: %v", err)
	}
	entries := make([]FrequencyTableEntry, 0, len(members))
	for _, member := range members {
		qgram, ok := member.Member.(string)
		if !ok {
			return nil, fmt.Errorf("govgram: corrupt statistics, non-string member in %s", t.key)
		}
		entries = append(entries, FrequencyTableEntry{qgram, float32(member.Score)})
	}
	table, err := NewFrequencyTable(minQ, maxQ, entries)
	if err != nil {
		return nil, err
	}
	if minFreq, err := strconv.ParseFloat(values["minfreq"], 32); err == nil {
		table.minFreq = float32(minFreq)
	}
	if maxFreq, err := strconv.ParseFloat(values["maxfreq"], 32); err == nil {
		table.maxFreq = float32(maxFreq)
	}
	if avgWordLen, err := strconv.ParseFloat(values["avgwordlen"], 32); err == nil {
		table.avgWordLen = float32(avgWordLen)
	}
	if rows, err := strconv.ParseUint(values["rows"], 10, 64); err == nil {
		table.rows = rows
	}
	return table, nil
}

// Lookup returns the stored frequency of _qgram_ and whether it is present,
// without loading the whole table.
func (t *FrequencyTableRedis) Lookup(qgram string) (float32, bool, error) {
	score, err := getRedisClient().ZScore(context.Background(), t.key, qgram).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("govgram: error looking up q-gram in redis, error: %v", err)
	}
	return float32(score), true, nil
}

// Drop removes the stored table and its metadata from Redis.
func (t *FrequencyTableRedis) Drop() error {
	err := getRedisClient().Del(context.Background(), t.key, t.metadataKey).Err()
	if err != nil {
		return fmt.Errorf("govgram: error dropping frequency table from redis, error: %v", err)
	}
	return nil
}

package govgram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kwertop/govgram/internal/util"
)

// RedisIndex is the Redis backed posting index. Postings are members of one
// sorted set encoded as "term:docid" at score 0, so the postings of a term
// are a lexicographic member range; indexed document ids are kept in a
// companion set for match-all queries. Because of the member encoding,
// document ids must not contain ':'.
// _key_ holds the Redis key of the posting sorted set.
// _docsKey_ holds the Redis key of the document id set.
// _metadataKey_ is used to store the additional information about the index
// for retrieving it by the Redis key.
type RedisIndex struct {
	table       *FrequencyTable
	minQ        int
	maxQ        int
	key         string
	docsKey     string
	metadataKey string
}

// NewRedisIndex creates a Redis backed index extracting v-grams of
// [minQ, maxQ] runes against _table_.
func NewRedisIndex(table *FrequencyTable, minQ, maxQ int) (*RedisIndex, error) {
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	key := util.GenerateRandomString(16)
	docsKey := util.GenerateRandomString(16)
	metadataKey := util.GenerateRandomString(16)
	index := &RedisIndex{table, minQ, maxQ, key, docsKey, metadataKey}
	metadata := make(map[string]interface{})
	metadata["key"] = key
	metadata["docskey"] = docsKey
	metadata["minq"] = minQ
	metadata["maxq"] = maxQ
	err := getRedisClient().HSet(context.Background(), metadataKey, metadata).Err()
	if err != nil {
		return nil, fmt.Errorf("govgram: error creating redis index, error: %v", err)
	}
	return index, nil
}

// NewRedisIndexFromKey is used to create a RedisIndex from the _metadataKey_
// (the Redis key used to store the metadata about the index) passed. For
// this to work, value should be present in Redis at _metadataKey_. The
// frequency table is not persisted with the index and must be supplied by
// the caller.
func NewRedisIndexFromKey(metadataKey string, table *FrequencyTable) (*RedisIndex, error) {
	values, err := getRedisClient().HGetAll(context.Background(), metadataKey).Result()
	if err != nil {
		return nil, fmt.Errorf("govgram: error creating redis index from key, error: %v", err)
	}
	minQ, _ := strconv.Atoi(values["minq"])
	maxQ, _ := strconv.Atoi(values["maxq"])
	key := values["key"]
	docsKey := values["docskey"]
	if minQ <= 0 || maxQ <= 0 || key == "" || docsKey == "" {
		return nil, fmt.Errorf("govgram: error creating redis index from key")
	}
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	return &RedisIndex{table, minQ, maxQ, key, docsKey, metadataKey}, nil
}

// MetadataKey returns the metadataKey
func (ix *RedisIndex) MetadataKey() string {
	return ix.metadataKey
}

// Add extracts the minimal v-grams of _value_ and posts them under _id_.
func (ix *RedisIndex) Add(id, value string) error {
	if strings.ContainsRune(id, ':') {
		return fmt.Errorf("govgram: document id %q must not contain ':'", id)
	}
	terms, err := ExtractVGrams(value, ix.table, ix.minQ, ix.maxQ)
	if err != nil {
		return err
	}
	ctx := context.Background()
	pipe := getRedisClient().Pipeline()
	for _, term := range terms {
		pipe.ZAdd(ctx, ix.key, redis.Z{Score: 0, Member: term + ":" + id})
	}
	pipe.SAdd(ctx, ix.docsKey, id)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("govgram: error indexing document %q, error: %v", id, err)
	}
	return nil
}

// Put posts a single _term_ under _id_ without extraction.
func (ix *RedisIndex) Put(term, id string) error {
	if strings.ContainsRune(id, ':') {
		return fmt.Errorf("govgram: document id %q must not contain ':'", id)
	}
	ctx := context.Background()
	pipe := getRedisClient().Pipeline()
	pipe.ZAdd(ctx, ix.key, redis.Z{Score: 0, Member: term + ":" + id})
	pipe.SAdd(ctx, ix.docsKey, id)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("govgram: error posting term %q, error: %v", term, err)
	}
	return nil
}

// Lookup returns the sorted document ids posted under _term_.
func (ix *RedisIndex) Lookup(term string) ([]string, error) {
	members, err := getRedisClient().ZRangeByLex(context.Background(), ix.key, termRange(term)).Result()
	if err != nil {
		return nil, fmt.Errorf("govgram: error looking up term %q, error: %v", term, err)
	}
	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, strings.TrimPrefix(member, term+":"))
	}
	return ids, nil
}

// QueryLike returns candidate document ids for a LIKE/ILIKE pattern, with
// the same contract as MemIndex.QueryLike: candidates require verification
// unless the second result is false, which proves no document matches.
func (ix *RedisIndex) QueryLike(pattern string) ([]string, bool, error) {
	terms, err := ExtractQueryVGrams(pattern, ix.table, ix.minQ, ix.maxQ)
	if err != nil {
		return nil, false, err
	}
	ctx := context.Background()
	if len(terms) == 0 {
		all, err := getRedisClient().SMembers(ctx, ix.docsKey).Result()
		if err != nil {
			return nil, false, fmt.Errorf("govgram: error querying index, error: %v", err)
		}
		sort.Strings(all)
		return all, true, nil
	}
	pipe := getRedisClient().Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(terms))
	for i, term := range terms {
		cmds[i] = pipe.ZRangeByLex(ctx, ix.key, termRange(term))
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("govgram: error querying index, error: %v", err)
	}
	var result map[string]bool
	for i, term := range terms {
		members := cmds[i].Val()
		if len(members) == 0 {
			return nil, false, nil
		}
		ids := make(map[string]bool, len(members))
		for _, member := range members {
			ids[strings.TrimPrefix(member, term+":")] = true
		}
		if result == nil {
			result = ids
		} else {
			result = intersectIDSets(result, ids)
			if len(result) == 0 {
				return nil, false, nil
			}
		}
	}
	candidates := make([]string, 0, len(result))
	for id := range result {
		candidates = append(candidates, id)
	}
	sort.Strings(candidates)
	return candidates, true, nil
}

// Count returns the number of indexed documents.
func (ix *RedisIndex) Count() (int64, error) {
	count, err := getRedisClient().SCard(context.Background(), ix.docsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("govgram: error counting documents, error: %v", err)
	}
	return count, nil
}

// Drop removes the index and its metadata from Redis.
func (ix *RedisIndex) Drop() error {
	err := getRedisClient().Del(context.Background(), ix.key, ix.docsKey, ix.metadataKey).Err()
	if err != nil {
		return fmt.Errorf("govgram: error dropping index, error: %v", err)
	}
	return nil
}

// termRange is the lexicographic member range holding every posting of
// _term_. UTF-8 never produces a 0xff byte, so the upper bound is safe.
func termRange(term string) *redis.ZRangeBy {
	return &redis.ZRangeBy{
		Min: "[" + term + ":",
		Max: "[" + term + ":\xff",
	}
}

func intersectIDSets(a, b map[string]bool) map[string]bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	intersection := make(map[string]bool)
	for id := range a {
		if b[id] {
			intersection[id] = true
		}
	}
	return intersection
}

package directory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/example/privacy-dispatch/internal/models"
)

// RedisDirectory mirrors the driver directory into Redis so multiple
// dispatch processes can share one bootstrap. Driver coordinates go through
// GEOADD, everything else lives in per-driver hashes.
type RedisDirectory struct {
	client *redis.Client
	geoKey string
	setKey string
	ctx    context.Context
}

func NewRedisDirectory(addr, password, geoKey string) *RedisDirectory {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisDirectory{client: c, geoKey: geoKey, setKey: geoKey + ":ids", ctx: context.Background()}
}

// Seed writes a full directory into Redis. Called once at bootstrap from the
// process that synthesized or loaded the seed file.
func (r *RedisDirectory) Seed(drivers []models.Driver) error {
	for _, d := range drivers {
		if err := r.upsert(d); err != nil {
			return fmt.Errorf("seed driver %s: %w", d.ID, err)
		}
	}
	return nil
}

func (r *RedisDirectory) upsert(d models.Driver) error {
	if err := r.client.SAdd(r.ctx, r.setKey, d.ID).Err(); err != nil {
		return err
	}
	if _, err := r.client.GeoAdd(r.ctx, r.geoKey, &redis.GeoLocation{Longitude: d.Loc.Lon, Latitude: d.Loc.Lat, Name: d.ID}).Result(); err != nil {
		return err
	}
	return r.client.HSet(r.ctx, metaKey(d.ID), map[string]interface{}{
		"lat":     strconv.FormatFloat(d.Loc.Lat, 'f', 6, 64),
		"lon":     strconv.FormatFloat(d.Loc.Lon, 'f', 6, 64),
		"cell":    d.Cell,
		"buckets": strings.Join(d.BucketTokens, ","),
		"status":  string(d.Status),
	}).Err()
}

func (r *RedisDirectory) Snapshot() []models.Driver {
	ids, err := r.client.SMembers(r.ctx, r.setKey).Result()
	if err != nil {
		return nil
	}
	sort.Strings(ids) // SMEMBERS order is unspecified; ranking ties need a stable order
	out := make([]models.Driver, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.Get(id); ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *RedisDirectory) Get(id string) (models.Driver, bool) {
	m, err := r.client.HGetAll(r.ctx, metaKey(id)).Result()
	if err != nil || len(m) == 0 {
		return models.Driver{}, false
	}
	d := models.Driver{ID: id, Cell: m["cell"], Status: models.DriverStatus(m["status"])}
	if v, err := strconv.ParseFloat(m["lat"], 64); err == nil {
		d.Loc.Lat = v
	}
	if v, err := strconv.ParseFloat(m["lon"], 64); err == nil {
		d.Loc.Lon = v
	}
	if m["buckets"] != "" {
		d.BucketTokens = strings.Split(m["buckets"], ",")
	}
	return d, true
}

func (r *RedisDirectory) SetStatus(id string, status models.DriverStatus) error {
	if _, ok := r.Get(id); !ok {
		return fmt.Errorf("unknown driver %q", id)
	}
	return r.client.HSet(r.ctx, metaKey(id), "status", string(status)).Err()
}

func metaKey(id string) string { return "driver:meta:" + id }

package infra_redis_cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis"
	"github.com/humanbelnik/kinomatch/internal/model"
)

const DefaultPrefix = "kinomatch:details"

// Driver stores movie details as JSON strings with a TTL.
type Driver struct {
	client *redis.Client
	prefix string
}

func New(
	client *redis.Client,
	prefix string,
) *Driver {
	return &Driver{
		client: client,
		prefix: prefix,
	}
}

func (d *Driver) Set(ctx context.Context, details model.MovieDetails, ttl time.Duration) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return d.client.WithContext(ctx).Set(d.key(details.ExternalID), raw, ttl).Err()
}

func (d *Driver) Get(ctx context.Context, externalID int64) (model.MovieDetails, bool, error) {
	val, err := d.client.WithContext(ctx).Get(d.key(externalID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.MovieDetails{}, false, nil
		}
		return model.MovieDetails{}, false, err
	}

	var details model.MovieDetails
	if err := json.Unmarshal(val, &details); err != nil {
		return model.MovieDetails{}, false, err
	}
	return details, true, nil
}

func (d *Driver) key(externalID int64) string {
	id := strconv.FormatInt(externalID, 10)
	if d.prefix != "" {
		return d.prefix + ":" + id
	}
	return id
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prasenjit/go-hooks/internal/models"
)

const (
	actionSetsKey = "actionsets"
	variablesKey  = "variables"
)

// RedisOptions holds the connection settings of a RedisStorage
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Timeout   time.Duration // Per command, default 3s
}

// RedisStorage implements Storage with two redis hashes, one for action sets
// keyed by ID and one for variables keyed by name. Values are JSON.
type RedisStorage struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisStorage connects to redis and checks the connection
func NewRedisStorage(opts RedisOptions) (*RedisStorage, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisStorage{client: client, prefix: opts.KeyPrefix, timeout: opts.Timeout}, nil
}

func (r *RedisStorage) key(name string) string {
	return r.prefix + name
}

func (r *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// CreateActionSet stores a new action set
func (r *RedisStorage) CreateActionSet(set *models.ActionSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}

	ctx, cancel := r.ctx()
	defer cancel()

	created, err := r.client.HSetNX(ctx, r.key(actionSetsKey), set.ID, data).Result()
	if err != nil {
		return fmt.Errorf("failed to save action set %s: %w", set.ID, err)
	}
	if !created {
		return fmt.Errorf("action set %s: %w", set.ID, ErrAlreadyExists)
	}
	return nil
}

// GetActionSet retrieves an action set by ID
func (r *RedisStorage) GetActionSet(id string) (*models.ActionSet, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.HGet(ctx, r.key(actionSetsKey), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("action set %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load action set %s: %w", id, err)
	}

	var set models.ActionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode action set %s: %w", id, err)
	}
	return &set, nil
}

// GetAllActionSets retrieves all action sets in creation order
func (r *RedisStorage) GetAllActionSets() ([]*models.ActionSet, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	records, err := r.client.HGetAll(ctx, r.key(actionSetsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load action sets: %w", err)
	}

	sets := make([]*models.ActionSet, 0, len(records))
	for id, data := range records {
		var set models.ActionSet
		if err := json.Unmarshal([]byte(data), &set); err != nil {
			return nil, fmt.Errorf("failed to decode action set %s: %w", id, err)
		}
		sets = append(sets, &set)
	}

	sortActionSets(sets)
	return sets, nil
}

// GetEnabledActionSets retrieves enabled action sets in creation order
func (r *RedisStorage) GetEnabledActionSets() ([]*models.ActionSet, error) {
	sets, err := r.GetAllActionSets()
	if err != nil {
		return nil, err
	}

	enabled := sets[:0]
	for _, set := range sets {
		if set.Enabled {
			enabled = append(enabled, set)
		}
	}
	return enabled, nil
}

// UpdateActionSet replaces an existing action set
func (r *RedisStorage) UpdateActionSet(set *models.ActionSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}

	ctx, cancel := r.ctx()
	defer cancel()

	exists, err := r.client.HExists(ctx, r.key(actionSetsKey), set.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to check action set %s: %w", set.ID, err)
	}
	if !exists {
		return fmt.Errorf("action set %s: %w", set.ID, ErrNotFound)
	}

	if err := r.client.HSet(ctx, r.key(actionSetsKey), set.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save action set %s: %w", set.ID, err)
	}
	return nil
}

// DeleteActionSet deletes an action set
func (r *RedisStorage) DeleteActionSet(id string) error {
	return r.del(actionSetsKey, "action set", id)
}

// GetVariable retrieves a durable variable
func (r *RedisStorage) GetVariable(name string) (*models.Variable, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.HGet(ctx, r.key(variablesKey), name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("variable %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load variable %s: %w", name, err)
	}

	var v models.Variable
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode variable %s: %w", name, err)
	}
	v.Persistent = true
	return &v, nil
}

// GetAllVariables retrieves every durable variable sorted by name
func (r *RedisStorage) GetAllVariables() ([]*models.Variable, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	records, err := r.client.HGetAll(ctx, r.key(variablesKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load variables: %w", err)
	}

	vars := make([]*models.Variable, 0, len(records))
	for name, data := range records {
		var v models.Variable
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("failed to decode variable %s: %w", name, err)
		}
		v.Persistent = true
		vars = append(vars, &v)
	}

	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Name < vars[j].Name
	})
	return vars, nil
}

// SetVariable creates or replaces a durable variable
func (r *RedisStorage) SetVariable(v *models.Variable) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode variable %s: %w", v.Name, err)
	}

	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.HSet(ctx, r.key(variablesKey), v.Name, data).Err(); err != nil {
		return fmt.Errorf("failed to save variable %s: %w", v.Name, err)
	}
	return nil
}

// DeleteVariable deletes a durable variable
func (r *RedisStorage) DeleteVariable(name string) error {
	return r.del(variablesKey, "variable", name)
}

func (r *RedisStorage) del(hash, kind, field string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	n, err := r.client.HDel(ctx, r.key(hash), field).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, field, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, field, ErrNotFound)
	}
	return nil
}

// Close closes the redis client
func (r *RedisStorage) Close() error {
	return r.client.Close()
}

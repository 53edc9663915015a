package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

var ErrNotFound = errors.New("progress: not found")

// Store 把运行进度保存在 redis 中，过期后自动删除
type Store struct {
	rdb        *redis.Client
	timeout    time.Duration
	expiration time.Duration
}

func NewStore(cfg *config.Config, rdb *redis.Client) *Store {
	return &Store{
		rdb:        rdb,
		timeout:    time.Duration(cfg.Redis.OperationTimeout) * time.Second,
		expiration: time.Duration(cfg.Redis.ProgressExpiration) * time.Second,
	}
}

func Key(runID int64) string {
	return fmt.Sprintf("run_%d_progress", runID)
}

func (s *Store) Save(p *domain.RunProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.rdb.Set(ctx, Key(p.RunID), data, s.expiration).Err()
}

func (s *Store) Get(runID int64) (*domain.RunProgress, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, Key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p := &domain.RunProgress{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/internal/repository/redis/converter"
	"github.com/DRSN-tech/movie-chat/pkg/clients"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/jimlawless/whereami"
)

// SessionRepo хранит скользящую историю реплик сессии в Redis-списке.
// Список обрезается до SessionMaxTurns и живёт SessionTTL с момента
// последней активности.
type SessionRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSessionRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *SessionRepo {
	return &SessionRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// AppendTurns атомарно дописывает реплики в конец истории сессии,
// обрезает её и продлевает TTL.
func (r *SessionRepo) AppendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(converter.ToRedisModel(turn))
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		values = append(values, data)
	}

	key := r.sessionKey(sessionID)

	pipeline := r.client.Client.TxPipeline()
	pipeline.RPush(ctx, key, values...)
	pipeline.LTrim(ctx, key, -r.cfg.SessionMaxTurns, -1)
	pipeline.Expire(ctx, key, r.cfg.SessionTTL)

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Turns возвращает всю сохранённую историю сессии, старые реплики первыми.
// Повреждённые элементы пропускаются с логом.
func (r *SessionRepo) Turns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	values, err := r.client.Client.LRange(ctx, r.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	turns := make([]domain.Turn, 0, len(values))
	for _, value := range values {
		var model converter.TurnRedisModel
		if err := json.Unmarshal([]byte(value), &model); err != nil {
			r.logger.Warnf("corrupted session turn skipped, session: %s: %v", sessionID, err)
			continue
		}
		turns = append(turns, converter.ToDomain(model))
	}

	return turns, nil
}

// sessionKey возвращает Redis-ключ истории одной сессии
func (r *SessionRepo) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vehicle_rental_service/internal/realtime/domain"
	errprocess "vehicle_rental_service/pkg/err"
	"vehicle_rental_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const opTimeout = 2 * time.Second

// PresenceRepository mirrors online users into Redis so the REST/ops
// side can answer "who is online" without touching the registry.
// Failures are logged and swallowed; presence is advisory only.
type PresenceRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceRepository create a PresenceRepository.
func NewPresenceRepository(client *redis.Client, ttl time.Duration) *PresenceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceRepository{client: client, ttl: ttl}
}

// UserOnline records the user's first live connection.
func (r *PresenceRepository) UserOnline(identity domain.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, roleKey(identity.Role), identity.UserID)
	pipe.Set(ctx, userKey(identity.UserID), identity.Role, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("presence online update failed", zap.Uint("userID", identity.UserID), zap.Error(err))
	}
}

// UserOffline records that the user's last connection is gone.
func (r *PresenceRepository) UserOffline(identity domain.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.SRem(ctx, roleKey(identity.Role), identity.UserID)
	pipe.Del(ctx, userKey(identity.UserID))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("presence offline update failed", zap.Uint("userID", identity.UserID), zap.Error(err))
	}
}

// Heartbeat extends the user's presence key.
func (r *PresenceRepository) Heartbeat(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Expire(ctx, userKey(userID), r.ttl).Err(); err != nil {
		logger.Log.Warn("presence heartbeat failed", zap.Uint("userID", userID), zap.Error(err))
	}
}

// OnlineByRole lists the user ids currently online with the role.
func (r *PresenceRepository) OnlineByRole(ctx context.Context, role string) ([]uint, error) {
	members, err := r.client.SMembers(ctx, roleKey(role)).Result()
	if err != nil {
		return nil, errprocess.Set(fmt.Sprintf("presence read failed: %v", err))
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func roleKey(role string) string {
	return "presence:role:" + role
}

func userKey(userID uint) string {
	return fmt.Sprintf("presence:user:%d", userID)
}

package repository

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/taylorbuilt/drawline/internal/config"
	"github.com/taylorbuilt/drawline/internal/project/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Provide selects the ledger store backend from configuration.
func Provide(cfg config.Config, db *gorm.DB, log *zap.Logger) (domain.Store, error) {
	switch cfg.StoreType {
	case config.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		log.Info("ledger store", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return NewRedisStore(client)
	case config.StoreTypeDB:
		log.Info("ledger store", zap.String("backend", "db"), zap.String("type", cfg.DBType))
		return NewGormStore(db)
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.StoreType)
	}
}

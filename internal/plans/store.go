package plans

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/pkg/config"
)

// OpenStore picks the snapshot backend named by cfg.Store. The redis backend
// needs a client; the db backend ignores it.
func OpenStore(cfg config.PlansConfig, conn *gorm.DB, client kv) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case config.PlanStoreRedis:
		if client == nil {
			return nil, fmt.Errorf("plan store %q requires redis", cfg.Store)
		}
		return NewRedisStore(client, cfg.RedisGrace)
	case config.PlanStoreDB, "":
		return NewGormStore(conn)
	default:
		return nil, fmt.Errorf("unsupported plan store %q", cfg.Store)
	}
}

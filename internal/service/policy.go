package service

import (
	"sync"

	"lingua_edu_backend/internal/config"
)

// PolicyStore 持有可热更新的策略配置。配置文件变更时由
// configwatcher 回调整体替换，读取方只在每次操作开始时取一次快照。
type PolicyStore struct {
	mu  sync.RWMutex
	cfg *config.Config
}

func NewPolicyStore(cfg *config.Config) *PolicyStore {
	return &PolicyStore{cfg: cfg}
}

func (p *PolicyStore) Get() *config.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *PolicyStore) Update(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

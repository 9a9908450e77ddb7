package util

import "sync"

// LearnerLocker 按学习者维度的互斥锁池。每个学习者一把锁，
// 写操作只锁本人，不同学习者互不阻塞；外部评分调用必须在
// 取锁之前完成，锁内只做本地状态变更。
type LearnerLocker struct {
	locks sync.Map // learnerID → *sync.Mutex
}

func NewLearnerLocker() *LearnerLocker {
	return &LearnerLocker{}
}

func (l *LearnerLocker) Lock(learnerID uint) {
	mu, _ := l.locks.LoadOrStore(learnerID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

func (l *LearnerLocker) Unlock(learnerID uint) {
	mu, ok := l.locks.Load(learnerID)
	if !ok {
		return
	}
	mu.(*sync.Mutex).Unlock()
}

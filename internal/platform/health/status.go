package health

import (
	"sync"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
)

// State 定义了Redis依赖的健康状态
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// statusManager 负责线程安全地管理和提供系统的健康状态。
type statusManager struct {
	mu             sync.RWMutex
	currentState   State
	lastKnownRunID string
}

var globalStatus = &statusManager{
	currentState: StateHealthy,
}

// GetState 返回当前的系统健康状态。
func GetState() State {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.currentState
}

// IsRedisHealthy 只有在健康状态下，Redis中的缓存（会话、排行榜、进度）才可信。
func IsRedisHealthy() bool {
	return GetState() == StateHealthy
}

// SetInitialRunID 在应用启动时设置初始的Redis run_id。
func SetInitialRunID(runID string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.lastKnownRunID = runID
	globalStatus.currentState = StateHealthy
}

// MarkDegraded 由业务代码在Redis调用失败时主动降级，等待下一次检查恢复。
func MarkDegraded() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	if globalStatus.currentState == StateHealthy {
		globalStatus.currentState = StateDegraded
		logger.Log.Warn("健康检查: Redis调用失败，系统状态 -> [降级]")
	}
}

// assess 根据一次检查的结果决定下一个状态，返回是否需要重建缓存。
func (sm *statusManager) assess(connected bool, runID string) (needsRebuild bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	restarted := sm.lastKnownRunID != "" && sm.lastKnownRunID != runID

	switch sm.currentState {
	case StateHealthy:
		if !connected {
			sm.currentState = StateDegraded
			logger.Log.Warn("健康检查: Redis连接丢失，系统状态 -> [降级]")
		} else if restarted {
			sm.currentState = StateRebuilding
			needsRebuild = true
			logger.Log.WithField("run_id", runID).Warn("健康检查: 检测到Redis重启，系统状态 -> [重建中]")
		}
	case StateDegraded:
		if connected {
			// 降级期间写入可能已经丢失，恢复时总是重建一次缓存
			sm.currentState = StateRebuilding
			needsRebuild = true
			logger.Log.Info("健康检查: Redis连接已恢复，系统状态 -> [重建中]")
		}
	case StateRebuilding:
		if !connected {
			sm.currentState = StateDegraded
			logger.Log.Warn("健康检查: 在缓存重建期间Redis连接再次丢失，系统状态 -> [降级]")
		} else {
			needsRebuild = true
		}
	}

	if connected {
		sm.lastKnownRunID = runID
	}
	return needsRebuild
}

// markRebuildComplete 在一次重建尝试之后调用。
func (sm *statusManager) markRebuildComplete(success bool, runIDAfterRebuild string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.currentState != StateRebuilding {
		return
	}

	// 重建期间Redis再次重启，本次重建作废
	if success && sm.lastKnownRunID != runIDAfterRebuild {
		logger.Log.Warn("健康检查: 缓存重建期间检测到Redis再次重启，保持[重建中]状态")
		sm.lastKnownRunID = runIDAfterRebuild
		return
	}

	if success {
		sm.currentState = StateHealthy
		logger.Log.Info("健康检查: 缓存重建成功，系统状态 -> [健康]")
	} else {
		logger.Log.Warn("健康检查: 缓存重建失败，系统状态保持 [重建中] 以待重试")
	}
}

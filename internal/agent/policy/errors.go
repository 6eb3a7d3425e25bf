package policy

import "errors"

var (
	// ErrNoSource 未配置外部决策源
	ErrNoSource = errors.New("policy: no decision source")

	// ErrInvalidAnswer 外部决策源返回了无效动作
	ErrInvalidAnswer = errors.New("policy: invalid answer from decision source")

	// ErrSourceSuspended 决策源因连续失败被暂停
	ErrSourceSuspended = errors.New("policy: decision source suspended")

	// ErrThrottled 调用预算已耗尽
	ErrThrottled = errors.New("policy: decision source throttled")

	// ErrNoCandidates 没有候选邻居
	ErrNoCandidates = errors.New("policy: no candidates")
)

package drlrouting

// 预设名称常量
const (
	// PresetDefault 启发式策略
	PresetDefault = "default"

	// PresetLearned 外部学习型策略，失败时回退到启发式
	PresetLearned = "learned"

	// PresetAdaptive 表现良好时启发式，恶化时切换到外部学习型策略
	PresetAdaptive = "adaptive"
)

package config

import "fmt"

// SimulationConfig 参考仿真环境配置
type SimulationConfig struct {
	// Nodes 节点数
	// 默认值: 20
	Nodes int `json:"nodes" yaml:"nodes"`

	// AreaSize 正方形区域边长（米）
	// 默认值: 1000
	AreaSize float64 `json:"area_size" yaml:"area_size"`

	// Range 无线通信半径（米）
	// 默认值: 250
	Range float64 `json:"range" yaml:"range"`

	// Steps 仿真步数
	// 默认值: 200
	Steps int `json:"steps" yaml:"steps"`

	// Seed 随机种子
	// 默认值: 1
	Seed int64 `json:"seed" yaml:"seed"`

	// MaxSpeed 随机游走最大速度（米/步）
	// 默认值: 10
	MaxSpeed float64 `json:"max_speed" yaml:"max_speed"`

	// QueueCapacity 每节点队列容量
	// 默认值: 64
	QueueCapacity int `json:"queue_capacity" yaml:"queue_capacity"`

	// TxEnergy 每次发送消耗的能量（满电为 1）
	// 默认值: 0.002
	TxEnergy float64 `json:"tx_energy" yaml:"tx_energy"`

	// BaseDelay 单跳基础时延（毫秒）
	// 默认值: 5
	BaseDelay float64 `json:"base_delay" yaml:"base_delay"`
}

// DefaultSimulationConfig 返回默认仿真配置
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Nodes:         20,
		AreaSize:      1000,
		Range:         250,
		Steps:         200,
		Seed:          1,
		MaxSpeed:      10,
		QueueCapacity: 64,
		TxEnergy:      0.002,
		BaseDelay:     5,
	}
}

// Validate 验证仿真配置
func (c *SimulationConfig) Validate() error {
	if c.Nodes < 2 {
		return fmt.Errorf("simulation: nodes must be >= 2")
	}
	if c.AreaSize <= 0 || c.Range <= 0 {
		return fmt.Errorf("simulation: area_size and range must be positive")
	}
	if c.Steps < 0 {
		return fmt.Errorf("simulation: steps must be >= 0")
	}
	if c.MaxSpeed < 0 || c.TxEnergy < 0 || c.BaseDelay < 0 {
		return fmt.Errorf("simulation: max_speed, tx_energy and base_delay must be >= 0")
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("simulation: queue_capacity must be >= 1")
	}
	return nil
}

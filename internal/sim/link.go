package sim

import "math"

// LinkModel 链路模型
//
// 有效半径随发射功率缩放：Range * (0.5 + 0.5*txPower)。
// 成功率随距离平方衰减，并受接收方缓冲区占用影响。
type LinkModel struct {
	Range     float64
	BaseDelay float64
}

// EffectiveRange 给定发射功率下的有效半径
func (m LinkModel) EffectiveRange(txPower float64) float64 {
	txPower = math.Min(1, math.Max(0, txPower))
	return m.Range * (0.5 + 0.5*txPower)
}

// SuccessProbability 单跳成功率
func (m LinkModel) SuccessProbability(distance, txPower, occupancy float64) float64 {
	eff := m.EffectiveRange(txPower)
	if eff <= 0 || distance > eff {
		return 0
	}
	ratio := distance / eff
	occupancy = math.Min(1, math.Max(0, occupancy))
	return (1 - 0.6*ratio*ratio) * (1 - 0.5*occupancy)
}

// Delay 单跳时延（毫秒）：基础时延 + 传播分量 + 排队分量
func (m LinkModel) Delay(distance float64, queued int) float64 {
	d := m.BaseDelay
	if m.Range > 0 {
		d += 2 * m.BaseDelay * distance / m.Range
	}
	return d + 0.5*m.BaseDelay*float64(queued)
}

// Hops 按半径估算跳数
func (m LinkModel) Hops(distance float64) int {
	if distance <= 0 || m.Range <= 0 {
		return 0
	}
	return int(math.Ceil(distance / m.Range))
}

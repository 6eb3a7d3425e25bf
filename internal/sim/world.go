package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var logger = log.Logger("sim")

// ErrUnknownNode 节点不存在
var ErrUnknownNode = errors.New("sim: unknown node")

// 仿真节点地址前缀，节点 i 的地址为 10.0.0.<i+1>
const addressPrefix = "10.0.0."

// drainPerStep 每步每节点出队的报文数
const drainPerStep = 2

// ============================================================================
//                              世界状态
// ============================================================================

type node struct {
	id       types.NodeID
	pos      types.Vector
	waypoint types.Vector
	speed    float64
	queue    int
	energy   float64
}

// World 仿真世界
//
// 读操作（邻居、位置、队列、能量）可并发；Step 和 Apply 需要独占。
// 一步之内的发送效果先记入待定量，在 Step 时统一生效，
// 因此同一步内所有节点看到的是同一份世界状态。
type World struct {
	mu    sync.RWMutex
	cfg   config.SimulationConfig
	link  LinkModel
	clock clock.Clock
	rng   *rand.Rand
	nodes []*node
	step  int

	pendingMu     sync.Mutex
	pendingQueue  []int
	pendingEnergy []float64
}

// NewWorld 创建仿真世界
func NewWorld(cfg config.SimulationConfig, clk clock.Clock) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	w := &World{
		cfg:           cfg,
		link:          LinkModel{Range: cfg.Range, BaseDelay: cfg.BaseDelay},
		clock:         clk,
		rng:           rand.New(rand.NewPCG(uint64(cfg.Seed), 0)),
		nodes:         make([]*node, cfg.Nodes),
		pendingQueue:  make([]int, cfg.Nodes),
		pendingEnergy: make([]float64, cfg.Nodes),
	}
	for i := range w.nodes {
		n := &node{
			id:     types.NodeID(i),
			pos:    w.randomPoint(),
			energy: 1,
		}
		n.waypoint = w.randomPoint()
		n.speed = w.randomSpeed()
		w.nodes[i] = n
	}

	logger.Info("仿真世界已创建",
		"nodes", cfg.Nodes,
		"area", cfg.AreaSize,
		"range", cfg.Range,
		"seed", cfg.Seed)
	return w, nil
}

// Config 返回仿真配置
func (w *World) Config() config.SimulationConfig {
	return w.cfg
}

// Link 返回链路模型
func (w *World) Link() LinkModel {
	return w.link
}

// Clock 返回仿真时钟
func (w *World) Clock() clock.Clock {
	return w.clock
}

// Size 节点数
func (w *World) Size() int {
	return len(w.nodes)
}

// StepCount 已推进的步数
func (w *World) StepCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.step
}

// Nodes 返回全部节点 ID
func (w *World) Nodes() []types.NodeID {
	out := make([]types.NodeID, len(w.nodes))
	for i, n := range w.nodes {
		out[i] = n.id
	}
	return out
}

// View 返回节点视角
func (w *World) View(id types.NodeID) (*View, error) {
	if w.lookup(id) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return &View{world: w, self: id}, nil
}

// SetPosition 放置节点（同时清除其移动目标）
func (w *World) SetPosition(id types.NodeID, pos types.Vector) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.lookup(id)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.pos, n.waypoint = pos, pos
	return nil
}

// SetEnergy 设置节点能量
func (w *World) SetEnergy(id types.NodeID, energy float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.lookup(id)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.energy = math.Min(1, math.Max(0, energy))
	return nil
}

// ============================================================================
//                              地址
// ============================================================================

// AddressOf 返回节点地址
func AddressOf(id types.NodeID) types.Address {
	return types.Address(addressPrefix + strconv.FormatUint(uint64(id)+1, 10))
}

// NodeOf 解析节点地址
func NodeOf(addr types.Address) (types.NodeID, bool) {
	s, ok := strings.CutPrefix(string(addr), addressPrefix)
	if !ok {
		return types.NoNode, false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return types.NoNode, false
	}
	return types.NodeID(v - 1), true
}

// ============================================================================
//                              查询（调用方持有读锁）
// ============================================================================

func (w *World) lookup(id types.NodeID) *node {
	if id.IsNone() || int(id) >= len(w.nodes) {
		return nil
	}
	return w.nodes[id]
}

func alive(n *node) bool {
	return n != nil && n.energy > 0
}

// neighborsLocked 半径内的存活节点，按 ID 升序
func (w *World) neighborsLocked(id types.NodeID) []types.NodeID {
	self := w.lookup(id)
	if !alive(self) {
		return nil
	}
	var out []types.NodeID
	for _, n := range w.nodes {
		if n.id == id || !alive(n) {
			continue
		}
		if self.pos.DistanceTo(n.pos) <= w.cfg.Range {
			out = append(out, n.id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) occupancyLocked(n *node) float64 {
	return float64(n.queue) / float64(w.cfg.QueueCapacity)
}

// ============================================================================
//                              推进
// ============================================================================

// Step 推进一步：应用待定的发送效果、出队、移动
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pendingMu.Lock()
	for i, n := range w.nodes {
		n.queue += w.pendingQueue[i]
		n.energy = math.Max(0, n.energy-w.pendingEnergy[i])
		w.pendingQueue[i] = 0
		w.pendingEnergy[i] = 0
	}
	w.pendingMu.Unlock()

	for _, n := range w.nodes {
		n.queue = max(0, min(n.queue, w.cfg.QueueCapacity)-drainPerStep)
		w.moveLocked(n)
	}
	w.step++
}

// moveLocked 随机路点移动
func (w *World) moveLocked(n *node) {
	if w.cfg.MaxSpeed <= 0 {
		return
	}
	d := n.pos.DistanceTo(n.waypoint)
	if d <= n.speed {
		n.pos = n.waypoint
		n.waypoint = w.randomPoint()
		n.speed = w.randomSpeed()
		return
	}
	f := n.speed / d
	n.pos = types.Vector{
		X: n.pos.X + (n.waypoint.X-n.pos.X)*f,
		Y: n.pos.Y + (n.waypoint.Y-n.pos.Y)*f,
		Z: n.pos.Z + (n.waypoint.Z-n.pos.Z)*f,
	}
}

func (w *World) randomPoint() types.Vector {
	return types.Vector{
		X: w.rng.Float64() * w.cfg.AreaSize,
		Y: w.rng.Float64() * w.cfg.AreaSize,
	}
}

func (w *World) randomSpeed() float64 {
	return w.cfg.MaxSpeed * (0.1 + 0.9*w.rng.Float64())
}

// ============================================================================
//                              发送
// ============================================================================

// Delivery 一次发送的结果
type Delivery struct {
	Success bool
	// Delay 端到端时延估计（毫秒），失败时为 0
	Delay float64
	// Hops 下一跳之后的剩余跳数估计
	Hops int
}

// Transmit 模拟 from 经 next 把报文发往 dest
//
// 下一跳链路按链路模型判定；next 不是目的节点时，
// 剩余路径每跳再以 remainingHopSuccess 的概率成功。
// 发送能耗和接收方入队在下一次 Step 时生效。
func (w *World) Transmit(from, next, dest types.NodeID, txPower float64, rng *rand.Rand) Delivery {
	w.mu.RLock()
	src, hop, dst := w.lookup(from), w.lookup(next), w.lookup(dest)
	if !alive(src) || !alive(hop) || dst == nil {
		w.mu.RUnlock()
		return Delivery{}
	}
	dist := src.pos.DistanceTo(hop.pos)
	p := w.link.SuccessProbability(dist, txPower, w.occupancyLocked(hop))
	delay := w.link.Delay(dist, hop.queue)
	remaining := 0
	if next != dest {
		remaining = max(1, w.link.Hops(hop.pos.DistanceTo(dst.pos)))
	}
	w.mu.RUnlock()

	w.pendingMu.Lock()
	w.pendingEnergy[from] += w.cfg.TxEnergy * math.Max(types.MinTxPower, txPower)
	w.pendingQueue[next]++
	w.pendingMu.Unlock()

	if rng.Float64() >= p {
		return Delivery{Hops: remaining}
	}
	for i := 0; i < remaining; i++ {
		if rng.Float64() >= remainingHopSuccess {
			return Delivery{Hops: remaining}
		}
	}
	return Delivery{
		Success: true,
		Delay:   delay + float64(remaining)*w.link.Delay(w.cfg.Range/2, 0),
		Hops:    remaining,
	}
}

// remainingHopSuccess 剩余路径每跳的成功率
const remainingHopSuccess = 0.97

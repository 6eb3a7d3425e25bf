package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// tracerName OpenTelemetry tracer 名
const tracerName = "github.com/dep2p/go-drlrouting/internal/agent/policy"

// DefaultTimeout 外部决策默认超时
const DefaultTimeout = 50 * time.Millisecond

// ============================================================================
//                              外部决策源适配器
// ============================================================================

// External 外部决策源适配器
//
// 每次决策：
//  1. 决策源被暂停或调用预算耗尽时直接回退
//  2. 在超时内调用决策源
//  3. 校验答案：下一跳必须是候选之一（或 NoNode），优先级在 {0,1,2}，
//     有限的发射功率被截断到 [0.1, 1]
//  4. 出错、超时或答案无效时回退到启发式并记录警告
type External struct {
	source   interfaces.DecisionSource
	fallback *Heuristic
	timeout  time.Duration
	limiter  *rate.Limiter
	health   *SourceHealth
	tracer   trace.Tracer
	name     string
}

var (
	_ interfaces.Policy          = (*External)(nil)
	_ interfaces.OutcomeObserver = (*External)(nil)
)

// ExternalOption 适配器选项
type ExternalOption func(*External)

// WithTimeout 设置单次调用超时
func WithTimeout(d time.Duration) ExternalOption {
	return func(e *External) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRateLimit 限制每秒调用次数，perSecond <= 0 表示不限流
func WithRateLimit(perSecond float64, burst int) ExternalOption {
	return func(e *External) {
		if perSecond <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHealth 设置健康跟踪器
func WithHealth(h *SourceHealth) ExternalOption {
	return func(e *External) {
		e.health = h
	}
}

// WithTracerProvider 设置 TracerProvider（默认使用全局）
func WithTracerProvider(tp trace.TracerProvider) ExternalOption {
	return func(e *External) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithName 设置策略名（默认 external）
func WithName(name string) ExternalOption {
	return func(e *External) {
		if name != "" {
			e.name = name
		}
	}
}

// NewExternal 创建适配器
//
// source 为 nil 时每次决策都回退到启发式。
func NewExternal(source interfaces.DecisionSource, opts ...ExternalOption) *External {
	e := &External{
		source:   source,
		fallback: NewHeuristic(),
		timeout:  DefaultTimeout,
		health:   NewSourceHealth(0, 0, 0, nil),
		tracer:   otel.Tracer(tracerName),
		name:     NameExternal,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewExternalFromConfig 按配置创建适配器
//
// opts 在配置之后应用，可覆盖配置项。
func NewExternalFromConfig(source interfaces.DecisionSource, cfg config.ExternalConfig, clk clock.Clock, opts ...ExternalOption) *External {
	base := []ExternalOption{
		WithTimeout(cfg.Timeout.Duration()),
		WithRateLimit(cfg.RatePerSecond, cfg.Burst),
		WithHealth(NewSourceHealth(cfg.FailureThreshold, cfg.FailureWindow.Duration(), cfg.Recovery.Duration(), clk)),
	}
	return NewExternal(source, append(base, opts...)...)
}

// Name 策略名
func (e *External) Name() string {
	return e.name
}

// Health 返回健康跟踪器
func (e *External) Health() *SourceHealth {
	return e.health
}

// Decide 产生动作
func (e *External) Decide(ctx context.Context, req *Request) types.AgentAction {
	if req == nil || len(req.Candidates) == 0 {
		return e.fallback.Decide(ctx, req)
	}
	if e.source == nil {
		return e.fallbackAction(ctx, req, FallbackNoSource, ErrNoSource)
	}
	if e.health.Suspended() {
		return e.fallbackAction(ctx, req, FallbackSuspended, ErrSourceSuspended)
	}
	if e.limiter != nil && !e.limiter.Allow() {
		return e.fallbackAction(ctx, req, FallbackThrottled, ErrThrottled)
	}

	ctx = types.ContextWithDecisionID(ctx, req.DecisionID)
	ctx, span := e.tracer.Start(ctx, "policy.External.Decide",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("drlrouting.policy", e.name),
			attribute.String("drlrouting.decision_id", req.DecisionID),
			attribute.Int64("drlrouting.node", int64(req.Self)),
			attribute.Int("drlrouting.candidates", len(req.Candidates)),
		))
	defer span.End()

	action, err := e.call(ctx, req)
	if err == nil {
		action, err = e.validate(action, req.Candidates)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.health.RecordFailure()
		return e.fallbackAction(ctx, req, fallbackReason(err), err)
	}

	e.health.RecordSuccess()
	action.Policy = e.name
	action.DecisionID = req.DecisionID
	action.Fallback = ""
	span.SetAttributes(attribute.Int64("drlrouting.next_hop", action.NextHop.Int64()))
	return action
}

// call 在超时内调用决策源
//
// 决策源可能不遵守 ctx，因此在独立 goroutine 中调用，超时后直接返回。
func (e *External) call(ctx context.Context, req *Request) (types.AgentAction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		action types.AgentAction
		err    error
	}
	done := make(chan result, 1)
	candidates := append([]types.NodeID(nil), req.Candidates...)
	go func() {
		a, err := e.source.Decide(ctx, req.State, candidates)
		done <- result{a, err}
	}()

	select {
	case r := <-done:
		return r.action, r.err
	case <-ctx.Done():
		return types.AgentAction{}, ctx.Err()
	}
}

// validate 校验并规整外部答案
func (e *External) validate(a types.AgentAction, candidates []types.NodeID) (types.AgentAction, error) {
	if math.IsNaN(a.TxPower) || math.IsInf(a.TxPower, 0) {
		return a, fmt.Errorf("%w: tx_power %v", ErrInvalidAnswer, a.TxPower)
	}
	if a.Priority < types.MinPriority || a.Priority > types.MaxPriority {
		return a, fmt.Errorf("%w: priority %d", ErrInvalidAnswer, a.Priority)
	}
	if !a.NextHop.IsNone() && !types.ContainsNode(candidates, a.NextHop) {
		return a, fmt.Errorf("%w: next hop %s is not a candidate", ErrInvalidAnswer, a.NextHop)
	}
	a.TxPower = math.Min(types.MaxTxPower, math.Max(types.MinTxPower, a.TxPower))
	return a, nil
}

// fallbackAction 回退到启发式
func (e *External) fallbackAction(ctx context.Context, req *Request, reason string, err error) types.AgentAction {
	switch reason {
	case FallbackThrottled, FallbackSuspended, FallbackNoSource:
		logger.Debug("跳过外部决策，使用启发式", "reason", reason)
	default:
		logger.WarnContext(ctx, "外部决策失败，回退到启发式",
			"reason", reason,
			"decisionID", log.ShortID(req.DecisionID, 8),
			"err", err)
	}

	action := e.fallback.Decide(ctx, req)
	action.Fallback = reason
	return action
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FallbackTimeout
	case errors.Is(err, ErrInvalidAnswer):
		return FallbackInvalid
	default:
		return FallbackError
	}
}

// Observe 转发结果反馈（决策源实现了 OutcomeObserver 时）
func (e *External) Observe(ctx context.Context, tr interfaces.Transition) error {
	obs, ok := e.source.(interfaces.OutcomeObserver)
	if !ok || e.health.Suspended() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := obs.Observe(ctx, tr); err != nil {
		logger.Debug("结果反馈失败", "decisionID", log.ShortID(tr.DecisionID, 8), "err", err)
		return err
	}
	return nil
}

// Close 关闭决策源
func (e *External) Close() error {
	var err error
	if c, ok := e.source.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

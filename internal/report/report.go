// Package report 把仿真结果导出为 Excel 工作簿
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/dep2p/go-drlrouting/internal/sim"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
)

var logger = log.Logger("report")

// 工作表名
const (
	SheetAgents    = "Agents"
	SheetDecisions = "Decisions"
)

var (
	// ErrNoResult 结果为空
	ErrNoResult = errors.New("report: result is nil")
	// ErrTooManyRows 超出工作表行数上限
	ErrTooManyRows = errors.New("report: too many rows for one sheet")
)

// maxRows 单个工作表的行数上限
var maxRows = excelize.TotalRows

var (
	agentHeaders = []interface{}{
		"Node", "Sent", "Received", "PDR", "MeanDelay(ms)",
		"WindowPDR", "WindowP95Delay(ms)", "Decisions", "Fallbacks", "Policy",
	}
	decisionHeaders = []interface{}{
		"Step", "Node", "Destination", "NextHop", "Policy", "Fallback", "Success", "Delay(ms)",
	}
)

// Write 把结果写入 path（目录不存在时创建）
func Write(path string, res *sim.Result) error {
	if res == nil {
		return ErrNoResult
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	f, err := Build(res)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("关闭工作簿失败", "err", err)
		}
	}()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	logger.Info("报告已保存", "path", path, "agents", len(res.Agents), "decisions", len(res.Decisions))
	return nil
}

// Build 构建工作簿（调用方负责 Close）
//
// 任一工作表超出行数上限时返回 ErrTooManyRows，不输出截断的工作簿。
func Build(res *sim.Result) (*excelize.File, error) {
	if res == nil {
		return nil, ErrNoResult
	}
	// 表头占一行
	if err := checkRows(SheetAgents, len(res.Agents)+1); err != nil {
		return nil, err
	}
	if err := checkRows(SheetDecisions, len(res.Decisions)+1); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := fill(f, res); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// checkRows 检查行数是否在上限内
func checkRows(sheet string, rows int) error {
	if rows > maxRows {
		return fmt.Errorf("%w: sheet %s needs %d rows, limit %d", ErrTooManyRows, sheet, rows, maxRows)
	}
	return nil
}

func fill(f *excelize.File, res *sim.Result) error {
	for _, name := range []string{SheetAgents, SheetDecisions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("report: new sheet %s: %w", name, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("report: delete default sheet: %w", err)
	}

	if err := setRow(f, SheetAgents, 1, &agentHeaders); err != nil {
		return err
	}
	for i, s := range res.Agents {
		row := []interface{}{
			int64(s.Node),
			s.Counters.PacketsSent,
			s.Counters.PacketsReceived,
			s.Counters.PDR(),
			s.Counters.MeanDelay(),
			s.Window.PDR,
			s.Window.P95Delay,
			s.Decisions,
			s.Fallbacks,
			s.Policy,
		}
		if err := setRow(f, SheetAgents, i+2, &row); err != nil {
			return err
		}
	}

	if err := setRow(f, SheetDecisions, 1, &decisionHeaders); err != nil {
		return err
	}
	for i, d := range res.Decisions {
		row := []interface{}{
			d.Step,
			int64(d.Node),
			int64(d.Destination),
			d.NextHop.Int64(),
			d.Policy,
			d.Fallback,
			d.Success,
			d.Delay,
		}
		if err := setRow(f, SheetDecisions, i+2, &row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values *[]interface{}) error {
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), values); err != nil {
		return fmt.Errorf("report: write %s row %d: %w", sheet, row, err)
	}
	return nil
}

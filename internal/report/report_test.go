package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dep2p/go-drlrouting/internal/agent"
	"github.com/dep2p/go-drlrouting/internal/agent/stats"
	"github.com/dep2p/go-drlrouting/internal/sim"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Steps: 2,
		Agents: []agent.Snapshot{
			{
				Node:      0,
				Policy:    "heuristic",
				Counters:  agent.Counters{PacketsSent: 2, PacketsReceived: 1, TotalDelay: 12},
				Window:    stats.WindowStats{Len: 2, Capacity: 100, PDR: 0.5, P95Delay: 12},
				Decisions: 2,
			},
			{
				Node:      1,
				Policy:    "external",
				Counters:  agent.Counters{PacketsSent: 2, PacketsReceived: 2, TotalDelay: 10},
				Window:    stats.WindowStats{Len: 2, Capacity: 100, PDR: 1, P95Delay: 6},
				Decisions: 2,
				Fallbacks: 1,
			},
		},
		Decisions: []sim.Decision{
			{Step: 0, Node: 0, Destination: 1, NextHop: 1, Policy: "heuristic", Success: true, Delay: 12},
			{Step: 0, Node: 1, Destination: 0, NextHop: types.NoNode},
			{Step: 1, Node: 1, Destination: 0, NextHop: 0, Policy: "heuristic", Fallback: "timeout", Success: true, Delay: 4},
		},
	}
}

// TestWrite 测试写入并读回工作簿
func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.xlsx")
	require.NoError(t, Write(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetAgents, SheetDecisions}, f.GetSheetList())

	rows, err := f.GetRows(SheetAgents)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Node", rows[0][0])
	assert.Equal(t, []string{"0", "2", "1", "0.5", "12", "0.5", "12", "2", "0", "heuristic"}, rows[1])
	assert.Equal(t, "1", rows[2][8])

	rows, err = f.GetRows(SheetDecisions)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "-1", rows[2][3])
	assert.Equal(t, "timeout", rows[3][5])
	assert.Equal(t, "TRUE", rows[3][6])

	t.Log("✅ 报告写入测试通过")
}

// TestWrite_NilResult 测试空结果
func TestWrite_NilResult(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "r.xlsx"), nil)
	assert.ErrorIs(t, err, ErrNoResult)

	t.Log("✅ 空结果测试通过")
}

// TestWrite_TooManyRows 测试超出行数上限时返回错误且不写文件
func TestWrite_TooManyRows(t *testing.T) {
	old := maxRows
	maxRows = 3
	defer func() { maxRows = old }()

	path := filepath.Join(t.TempDir(), "big.xlsx")
	err := Write(path, sampleResult())
	require.ErrorIs(t, err, ErrTooManyRows)
	assert.Contains(t, err.Error(), SheetDecisions)
	assert.NoFileExists(t, path)

	t.Log("✅ 行数上限测试通过")
}

// TestSetRow_ExcelLimit 测试写入超出 Excel 行上限的行时返回错误
func TestSetRow_ExcelLimit(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	row := []interface{}{1}
	err := setRow(f, "Sheet1", excelize.TotalRows+1, &row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sheet1 row 1048577")

	t.Log("✅ Excel 行上限测试通过")
}

// TestBuild 测试构建工作簿
func TestBuild(t *testing.T) {
	f, err := Build(sampleResult())
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, []string{SheetAgents, SheetDecisions}, f.GetSheetList())

	_, err = Build(nil)
	assert.ErrorIs(t, err, ErrNoResult)

	t.Log("✅ 工作簿构建测试通过")
}

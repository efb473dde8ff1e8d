package tables

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/cedricziel/vtql/internal/engine"
)

// NewProcessesTable lists running processes
func NewProcessesTable() engine.Table {
	return &engine.FuncTable{
		TableName: Processes,
		Schema: engine.TableColumns{
			{Name: "pid", Type: engine.ColumnTypeBigInt, Options: engine.ColumnOptionIndex},
			{Name: "name", Type: engine.ColumnTypeText},
			{Name: "ppid", Type: engine.ColumnTypeBigInt},
			{Name: "state", Type: engine.ColumnTypeText},
			{Name: "rss", Type: engine.ColumnTypeBigInt},
			{Name: "cmdline", Type: engine.ColumnTypeText, Options: engine.ColumnOptionHidden},
		},
		Generator: generateProcesses,
	}
}

func generateProcesses(ctx context.Context) (engine.QueryData, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	rows := make(engine.QueryData, 0, len(procs))
	for _, p := range procs {
		// processes can exit between listing and inspection
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}

		row := engine.Row{
			"pid":     strconv.FormatInt(int64(p.Pid), 10),
			"name":    name,
			"ppid":    "",
			"state":   "",
			"rss":     "",
			"cmdline": "",
		}
		if ppid, err := p.PpidWithContext(ctx); err == nil {
			row["ppid"] = strconv.FormatInt(int64(ppid), 10)
		}
		if status, err := p.StatusWithContext(ctx); err == nil {
			row["state"] = strings.Join(status, ",")
		}
		if info, err := p.MemoryInfoWithContext(ctx); err == nil && info != nil {
			row["rss"] = strconv.FormatUint(info.RSS, 10)
		}
		if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
			row["cmdline"] = cmdline
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// NewSystemInfoTable reports a single row describing the host
func NewSystemInfoTable() engine.Table {
	return &engine.FuncTable{
		TableName: SystemInfo,
		Schema: engine.TableColumns{
			{Name: "hostname", Type: engine.ColumnTypeText},
			{Name: "os", Type: engine.ColumnTypeText},
			{Name: "platform", Type: engine.ColumnTypeText},
			{Name: "kernel_version", Type: engine.ColumnTypeText},
			{Name: "uptime", Type: engine.ColumnTypeUnsignedBigInt},
			{Name: "cpu_count", Type: engine.ColumnTypeInteger},
		},
		Generator: func(ctx context.Context) (engine.QueryData, error) {
			info, err := host.InfoWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("reading host info: %w", err)
			}
			cpus, err := cpu.CountsWithContext(ctx, true)
			if err != nil {
				return nil, fmt.Errorf("counting cpus: %w", err)
			}
			return engine.QueryData{{
				"hostname":       info.Hostname,
				"os":             info.OS,
				"platform":       info.Platform,
				"kernel_version": info.KernelVersion,
				"uptime":         strconv.FormatUint(info.Uptime, 10),
				"cpu_count":      strconv.Itoa(cpus),
			}}, nil
		},
	}
}

// NewMemoryInfoTable reports a single row of virtual memory statistics
func NewMemoryInfoTable() engine.Table {
	return &engine.FuncTable{
		TableName: MemoryInfo,
		Schema: engine.TableColumns{
			{Name: "total", Type: engine.ColumnTypeUnsignedBigInt},
			{Name: "available", Type: engine.ColumnTypeUnsignedBigInt},
			{Name: "used", Type: engine.ColumnTypeUnsignedBigInt},
			{Name: "used_percent", Type: engine.ColumnTypeDouble},
		},
		Generator: func(ctx context.Context) (engine.QueryData, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("reading memory info: %w", err)
			}
			return engine.QueryData{{
				"total":        strconv.FormatUint(vm.Total, 10),
				"available":    strconv.FormatUint(vm.Available, 10),
				"used":         strconv.FormatUint(vm.Used, 10),
				"used_percent": strconv.FormatFloat(vm.UsedPercent, 'f', 2, 64),
			}}, nil
		},
	}
}

// NewLoadAverageTable reports one row per load average period
func NewLoadAverageTable() engine.Table {
	return &engine.FuncTable{
		TableName: LoadAverage,
		Schema: engine.TableColumns{
			{Name: "period", Type: engine.ColumnTypeText},
			{Name: "average", Type: engine.ColumnTypeDouble},
		},
		Generator: func(ctx context.Context) (engine.QueryData, error) {
			avg, err := load.AvgWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("reading load average: %w", err)
			}
			format := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
			return engine.QueryData{
				{"period": "1m", "average": format(avg.Load1)},
				{"period": "5m", "average": format(avg.Load5)},
				{"period": "15m", "average": format(avg.Load15)},
			}, nil
		},
	}
}

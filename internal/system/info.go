package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

// GetSystemInfo returns general system information
func GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}

	cpuInfo, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU info: %w", err)
	}

	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		logical = 0 // Continue without a processor count
	}

	var cpuModel string
	if len(cpuInfo) > 0 {
		cpuModel = cpuInfo[0].ModelName
	} else {
		cpuModel = "Unknown CPU"
	}

	// Session enumeration only works on Windows; elsewhere the user is left blank
	sessions, _ := GetSessions(ctx)
	userHost := hostInfo.Hostname
	if user := activeUser(sessions); user != "" {
		userHost = user + "@" + hostInfo.Hostname
	}

	return &SystemInfo{
		User:        userHost,
		Host:        hostInfo.Hostname,
		OS:          fmt.Sprintf("%s %s %s", hostInfo.Platform, hostInfo.PlatformVersion, hostInfo.KernelArch),
		Kernel:      fmt.Sprintf("%s %s", hostInfo.OS, hostInfo.KernelVersion),
		CPU:         cpuModel,
		LogicalCPUs: logical,
	}, nil
}

// GetReport collects a one-shot report. Host info is required; power
// and session failures are recorded in Errors
func GetReport(ctx context.Context, source FrequencySource) (*Report, error) {
	info, err := GetSystemInfo(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{System: info}

	power, err := GetPowerSnapshot(ctx, source)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.Power = power
	}

	sessions, err := GetSessions(ctx)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.Sessions = sessions
	}

	return report, nil
}

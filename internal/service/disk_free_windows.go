//go:build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// DiskUsage returns free and total bytes on the volume holding path.
func DiskUsage(path string) (free, total uint64, err error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}

	var totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, 0, fmt.Errorf("GetDiskFreeSpaceEx %s: %w", path, err)
	}
	return free, total, nil
}

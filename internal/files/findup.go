package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// WorkerBinName is the file name ExecLauncher looks for when no worker
// binary is configured explicitly.
const WorkerBinName = "tether-worker"

func FindUp(name, dir string) string {
	curDir := dir
	for {
		entries, err := os.ReadDir(curDir)
		if err != nil {
			return ""
		}
		for _, e := range entries {
			if name == e.Name() {
				return filepath.Join(curDir, name)
			}
		}
		newDir := filepath.Dir(curDir)
		if newDir == curDir {
			return ""
		}
		curDir = newDir
	}
}

// FindWorkerBin searches from dir upwards for the worker binary.
func FindWorkerBin(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	bin := FindUp(WorkerBinName, dir)
	if bin == "" {
		return "", fmt.Errorf("unable to find %q searching up from %q", WorkerBinName, dir)
	}
	return bin, nil
}

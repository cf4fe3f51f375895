package main

import (
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/scitix/contactmerge/cli"
)

func main() {
	defer klog.Flush()
	baseName := filepath.Base(os.Args[0])

	if err := cli.NewCommand(baseName).Execute(); err != nil {
		klog.ErrorS(err, "An error occurred")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	}
}

package tools

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

// ReadSecret loads a password or token from file, without surrounding
// whitespace.
func ReadSecret(file string) (string, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	secret := strings.TrimSpace(string(bytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", file)
	}
	return secret, nil
}

// TimestampedPath inserts the time before the extension of file:
// report.yaml becomes report-20240102-150405.yaml.
func TimestampedPath(file string, t time.Time) string {
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + "-" + t.Format("20060102-150405") + ext
}

type Exiter func(code int)

// HandlerSigterm cancels the context on SIGTERM or SIGINT and gives the
// current work delay seconds to finish before exit is called.
func HandlerSigterm(cancel context.CancelFunc, delay int, exit Exiter) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, os.Interrupt)
	sig := <-signalChan
	klog.InfoS("Received signal, shutting down", "signal", sig.String())

	cancel()
	klog.Infof("Handled quit, delaying exit for %d seconds", delay)
	time.Sleep(time.Duration(delay) * time.Second)

	exit(0)
}

package metrics

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
	"k8s.io/klog/v2"
)

const DefaultJobName = "contactmerge"

// Push sends the collected metrics to a Prometheus Pushgateway, replacing the
// group of job.
func (m *MetricsController) Push(ctx context.Context, url, job string) error {
	if job == "" {
		job = DefaultJobName
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	klog.V(2).InfoS("Pushed metrics", "url", url, "job", job)
	return nil
}

// Write encodes the collected metrics in the text exposition format.
func (m *MetricsController) Write(w io.Writer) error {
	mfs, err := m.registry.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WriteTextfile writes the metrics for the node_exporter textfile collector.
// The file is replaced atomically so the collector never reads half of it.
func (m *MetricsController) WriteTextfile(filename string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := m.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

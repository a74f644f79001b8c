package fsops

import "time"

// DryRun forwards read-only calls to an underlying FS and reports success
// for mutating calls without performing them.
type DryRun struct {
	FS  FS
	Log Logger
}

// NewDryRun wraps fs.
func NewDryRun(fs FS, log Logger) *DryRun {
	return &DryRun{FS: fs, Log: log}
}

func (d *DryRun) Exists(path string) bool { return d.FS.Exists(path) }

func (d *DryRun) EnsureDir(path string) bool {
	if !d.FS.Exists(path) {
		d.Log.Info("  [DRY] Would create %s", path)
	}
	return true
}

func (d *DryRun) Rename(src, dst string) bool {
	d.Log.Info("  [DRY] Would move %s -> %s", src, dst)
	return true
}

func (d *DryRun) Copy(src, dst string) bool {
	d.Log.Info("  [DRY] Would copy %s -> %s", src, dst)
	return true
}

func (d *DryRun) CreateTime(path string) (time.Time, error) { return d.FS.CreateTime(path) }

func (d *DryRun) SameFile(a, b string) bool { return d.FS.SameFile(a, b) }

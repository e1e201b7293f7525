package routine

import "os"

// readFile is a thin seam over os.ReadFile, used by Watcher.reload, so tests
// can swap in a fake reader. NewWatcher still needs a real path on disk to
// hand to fsnotify.
var readFile = os.ReadFile

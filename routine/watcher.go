package routine

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a single path-file on disk and re-parses it on every
// write event, publishing freshly-parsed documents on Docs. It's grounded
// on the teacher's recwatch.RecWatcher (fsnotify.Watcher wrapped with its
// own events channel and a close-once guard), narrowed from a recursive
// directory watch down to the single-file case this collaborator needs.
type Watcher struct {
	path string

	watcher *fsnotify.Watcher
	docs    chan *Document
	errs    chan error
	exit    chan struct{}

	closeOnce sync.Once
}

// NewWatcher starts watching path, parsing it once immediately and then
// again on every subsequent write.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		docs:    make(chan *Document),
		errs:    make(chan error),
		exit:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Docs returns the channel freshly-parsed documents are published on, one
// per observed write. The initial parse is sent on the first successful
// read of path after NewWatcher returns.
func (w *Watcher) Docs() <-chan *Document { return w.docs }

// Errs returns the channel parse and filesystem errors are published on.
func (w *Watcher) Errs() <-chan error { return w.errs }

func (w *Watcher) loop() {
	defer close(w.docs)
	defer close(w.errs)
	w.reload()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.publishErr(err)
		case <-w.exit:
			return
		}
	}
}

func (w *Watcher) reload() {
	data, err := readFile(w.path)
	if err != nil {
		w.publishErr(err)
		return
	}
	doc, err := Parse(data)
	if err != nil {
		w.publishErr(err)
		return
	}
	select {
	case w.docs <- doc:
	case <-w.exit:
	}
}

func (w *Watcher) publishErr(err error) {
	select {
	case w.errs <- err:
	case <-w.exit:
	}
}

// Close stops the watcher and releases its underlying fsnotify handle. It's
// safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.exit)
		err = w.watcher.Close()
	})
	return err
}

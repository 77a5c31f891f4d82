// Package watcher reports changes to corpus files.
//
// A Watcher follows a corpus directory tree with fsnotify, drops events for
// hidden directories and files without a corpus extension, and hands out
// debounced batches so that an editor saving several files causes a single
// reload:
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, "/path/to/corpus")
//
//	for batch := range w.Events() {
//	    reload(batch)
//	}
package watcher

// Package storage writes scraped images and captions to disk.
//
// Files are numbered by quota slot: image_<i>.jpg holds the downloaded
// bytes unchanged and caption_<i>.txt holds the caption text. A run
// manifest may be written alongside them.
//
// Features:
//   - Atomic file writes using temporary files and rename
//   - Idempotent creation of the output directory
//   - Thread-safe bookkeeping of saved indices
//
// Usage:
//
//	manager, err := storage.NewManager("scraped_images")
//	if err != nil {
//	    return err
//	}
//	if _, err := manager.SaveImage(0, bytes.NewReader(data)); err != nil {
//	    return err
//	}
//	err = manager.SaveCaption(0, "N/A")
package storage

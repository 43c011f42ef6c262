package dlog

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// UploadFunc ships an archived log file to remote storage. A nil upload
// keeps archives local only.
type UploadFunc func(localPath, remotePath string) error

type Archiver struct {
	upload UploadFunc
}

// StartArchiver rotates the logs directory on the given cron spec.
func StartArchiver(spec string, upload UploadFunc) {
	a := &Archiver{upload: upload}
	c := cron.New()
	entryID, err := c.AddFunc(spec, a.process)
	if err != nil {
		panic(err)
	}
	c.Start()
	Info("Created archive cron", "entryID", entryID, "spec", spec)
}

func (a *Archiver) process() {
	Log.Info("Started log archive")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	archiveDir := "logs/" + yesterday

	tmp := archiveDir
	counter := 1
	err := os.Mkdir(archiveDir, 0755)
	for os.IsExist(err) {
		archiveDir = tmp + "-" + strconv.Itoa(counter)
		counter++
		err = os.Mkdir(archiveDir, 0755)
	}
	if err != nil {
		Log.Error("Failed to create archive directory", "error", err)
		return
	}

	dir, err := os.ReadDir("logs")
	if err != nil {
		Log.Error("Failed to read log directory", "error", err)
		return
	}

	for _, entry := range dir {
		if !entry.Type().IsRegular() {
			continue
		}
		src := "logs/" + entry.Name()
		dst := archiveDir + "/" + entry.Name()

		data, err := os.ReadFile(src)
		if err != nil {
			Log.Error("Failed to read log file", "fileName", src, "error", err)
			return
		}
		if err = os.WriteFile(dst, data, 0600); err != nil {
			Log.Error("Failed to write archived log", "fileName", dst, "error", err)
			return
		}
		if err = os.Truncate(src, 0); err != nil {
			Log.Error("Failed to truncate log file", "fileName", src, "error", err)
			return
		}
		Log.Info("Archived log", "fileName", entry.Name(), "written", len(data))

		if a.upload != nil {
			remote := "logs/" + filepath.Base(archiveDir) + "/" + entry.Name()
			if err = a.upload(dst, remote); err != nil {
				// archive upload is best effort, the local copy stays
				Log.Error("Failed to upload archived log", "fileName", dst, "error", err)
			}
		}
	}
}
